package utils

import "errors"

var ErrorRecordNotFound = errors.New("record not found")

// ErrorRunLocked is returned when another caller holds the generation lock
// for the same run.
var ErrorRunLocked = errors.New("run is locked by another operation")
