package config

import (
	"context"
	"testing"

	"github.com/mmdatafocus/imports_backend/appctx"
)

func TestShouldBypassTenantScope(t *testing.T) {
	base := context.Background()

	if shouldBypassTenantScope(base) {
		t.Fatal("plain context must not bypass tenant scope")
	}
	if !shouldBypassTenantScope(appctx.Set(base, appctx.ContextKeyIsAdmin, true)) {
		t.Fatal("admin context should bypass tenant scope")
	}
	if !shouldBypassTenantScope(appctx.Set(base, appctx.ContextKeySkipTenantScope, true)) {
		t.Fatal("skip-scope context should bypass tenant scope")
	}
	if shouldBypassTenantScope(appctx.Set(base, appctx.ContextKeyIsAdmin, false)) {
		t.Fatal("explicit false admin flag must not bypass")
	}
}

func TestBusinessIdFromContext(t *testing.T) {
	base := context.Background()
	if got := businessIdFromContext(base); got != "" {
		t.Fatalf("plain context business id = %q, want empty", got)
	}
	ctx := appctx.Set(base, appctx.ContextKeyBusinessId, "biz-1")
	if got := businessIdFromContext(ctx); got != "biz-1" {
		t.Fatalf("business id = %q, want biz-1", got)
	}
}
