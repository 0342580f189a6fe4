package main

import (
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/mmdatafocus/imports_backend/fileparse"
	"github.com/mmdatafocus/imports_backend/importer"
	"github.com/mmdatafocus/imports_backend/models"
	"github.com/mmdatafocus/imports_backend/utils"
)

const maxUploadSize = 20 << 20 // 20 MB per source file

func init() {
	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		v.RegisterValidation("runmode", func(fl validator.FieldLevel) bool {
			_, err := models.ParseRunMode(fl.Field().String())
			return err == nil
		})
	}
}

func registerRunRoutes(r *gin.Engine) {
	runs := r.Group("/runs")
	runs.POST("", createRunHandler)
	runs.GET("", listRunsHandler)
	runs.GET("/:id", getRunHandler)
	runs.PUT("/:id/mapping", updateMappingHandler)
	runs.POST("/:id/validate-mapping", validateMappingHandler)
	runs.POST("/:id/detect-columns", detectColumnsHandler)
	runs.POST("/:id/files", attachFileHandler)
	runs.DELETE("/:id/files/:fileId", removeFileHandler)
	runs.POST("/:id/parse", parseRunHandler)
	runs.GET("/:id/preview", previewRunHandler)
	runs.POST("/:id/generate", generateRunHandler)
	runs.GET("/:id/time-range", timeRangeHandler)
	runs.POST("/:id/save-mapping", saveMappingHandler)
	runs.POST("/:id/reopen", reopenRunHandler)
}

func runIdParam(c *gin.Context) (int, bool) {
	id, err := strconv.Atoi(c.Param("id"))
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid run id"})
		return 0, false
	}
	return id, true
}

func writeRunError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, utils.ErrorRecordNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "run not found"})
	case errors.Is(err, utils.ErrorRunLocked):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	}
}

func createRunHandler(c *gin.Context) {
	var input models.NewImportRun
	if err := c.ShouldBindJSON(&input); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	run, err := models.CreateImportRun(c.Request.Context(), &input)
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusCreated, run)
}

func listRunsHandler(c *gin.Context) {
	runs, err := models.ListImportRuns(c.Request.Context())
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"runs": runs})
}

func getRunHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	run, err := models.GetImportRun(c.Request.Context(), id)
	if err != nil {
		writeRunError(c, err)
		return
	}
	preview, _ := run.GetPreviewPayload()
	importLog, _ := run.GetImportLog()
	c.JSON(http.StatusOK, gin.H{
		"run":        run,
		"preview":    preview,
		"import_log": importLog,
	})
}

func updateMappingHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	var mapping models.ColumnMapping
	if err := c.ShouldBindJSON(&mapping); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request"})
		return
	}
	run, err := models.UpdateImportRunMapping(c.Request.Context(), id, mapping)
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}

func validateMappingHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	run, err := models.GetImportRun(c.Request.Context(), id)
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, run.Validate(run.Mode))
}

// detectColumnsHandler guesses a statement mapping from the header row of the
// first readable source file. It never modifies the run.
func detectColumnsHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	run, err := models.GetImportRun(c.Request.Context(), id)
	if err != nil {
		writeRunError(c, err)
		return
	}
	if len(run.SourceFiles) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run has no source files"})
		return
	}

	for i := range run.SourceFiles {
		file := &run.SourceFiles[i]
		grid, err := fileparse.Read(file.Content, string(run.FileType), fileparse.Options{Delimiter: run.Delimiter})
		if err != nil {
			continue
		}
		header, _ := fileparse.HeaderAndData(grid, run.SkipHeaderRows)
		if header == nil {
			continue
		}
		c.JSON(http.StatusOK, gin.H{
			"file_id": file.ID,
			"header":  header,
			"guesses": models.DetectColumns(header),
		})
		return
	}
	c.JSON(http.StatusBadRequest, gin.H{"error": "no source file could be read"})
}

func attachFileHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file is required"})
		return
	}
	if fileHeader.Size > maxUploadSize {
		c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "file too large"})
		return
	}

	f, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	defer f.Close()
	content, err := io.ReadAll(f)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, err := models.AttachSourceFile(c.Request.Context(), id, &models.NewRunSourceFile{
		FileName:   fileHeader.Filename,
		Content:    content,
		DeviceName: c.PostForm("device_name"),
	})
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusCreated, file)
}

func removeFileHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	fileId, err := strconv.Atoi(c.Param("fileId"))
	if err != nil || fileId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid file id"})
		return
	}
	if err := models.RemoveSourceFile(c.Request.Context(), id, fileId); err != nil {
		writeRunError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func parseRunHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	run, summary, err := importer.Parse(c.Request.Context(), id)
	if err != nil {
		writeRunError(c, err)
		return
	}
	preview, _ := run.GetPreviewPayload()
	c.JSON(http.StatusOK, gin.H{
		"run":     run,
		"preview": preview,
		"summary": gin.H{
			"total":                 summary.Total,
			"ready":                 summary.Ready,
			"failed":                summary.Failed,
			"distinct_keys":         summary.DistinctKeys,
			"skipped_before_cutoff": summary.SkippedBeforeCutoff,
			"skipped_duplicates":    summary.SkippedDuplicates,
			"unmatched_ids":         summary.UnmatchedIds,
		},
	})
}

func previewRunHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "0"))
	order := c.DefaultQuery("order", "asc")

	page, err := importer.Preview(c.Request.Context(), id, offset, limit, order)
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, page)
}

func generateRunHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	run, result, err := importer.Generate(c.Request.Context(), id)
	if err != nil {
		if run != nil {
			// engine abort: the run is now Failed, partial results stand
			c.JSON(http.StatusUnprocessableEntity, gin.H{
				"error":  err.Error(),
				"run":    run,
				"result": result,
			})
			return
		}
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"run": run, "result": result})
}

func timeRangeHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	tr, err := importer.RunTimeRange(c.Request.Context(), id)
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, tr)
}

// saveMappingHandler confirms the run's mapping onto its bank account so the
// next statement run for the same account starts pre-configured.
func saveMappingHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	run, err := models.GetImportRun(c.Request.Context(), id)
	if err != nil {
		writeRunError(c, err)
		return
	}
	if run.Mode != models.RunModeBankStatement || run.BankAccountId <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "run has no bank account to save the mapping on"})
		return
	}
	if err := models.SaveBankAccountMapping(c.Request.Context(), run.BankAccountId, run.ColumnMapping); err != nil {
		writeRunError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

type reopenRunRequest struct {
	Reason string `json:"reason" binding:"required"`
}

func reopenRunHandler(c *gin.Context) {
	id, ok := runIdParam(c)
	if !ok {
		return
	}
	var req reopenRunRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "reason is required"})
		return
	}
	run, err := models.ReopenImportRun(c.Request.Context(), id, req.Reason)
	if err != nil {
		writeRunError(c, err)
		return
	}
	c.JSON(http.StatusOK, run)
}
