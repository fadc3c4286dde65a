package render

import (
	"fmt"
	"path"
	"strings"

	"github.com/finportal/reimbursedoc/submission"
)

// extTypes maps known proof-file extensions to content types for the
// manifest. This is a closed business mapping, not a general mime lookup.
var extTypes = map[string]string{
	".pdf":  "application/pdf",
	".png":  "image/png",
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".gif":  "image/gif",
	".txt":  "text/plain",
	".csv":  "text/csv",
	".doc":  "application/msword",
	".docx": "application/vnd.openxmlformats-officedocument.wordprocessingml.document",
	".xls":  "application/vnd.ms-excel",
	".xlsx": "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
}

// InferContentType resolves the type shown in the manifest with a fixed
// priority: the declared content type, else a type inferred from the file
// extension, else "unknown".
func InferContentType(declared, filename string) string {
	if t := strings.TrimSpace(declared); t != "" {
		return t
	}
	if t, ok := extTypes[strings.ToLower(path.Ext(filename))]; ok {
		return t
	}
	return "unknown"
}

// manifestRow builds the manifest cells for the i-th attachment (0-based).
func manifestRow(i int, a submission.Attachment) []string {
	name := a.Filename
	if strings.TrimSpace(name) == "" {
		name = fmt.Sprintf("Attachment %d", i+1)
	}
	return []string{
		fmt.Sprintf("%d", i+1),
		name,
		InferContentType(a.ContentType, a.Filename),
		sizeKB(a.Size),
	}
}

// sizeKB formats a byte size in kilobytes, or "-" when no size is known.
func sizeKB(size int64) string {
	if size <= 0 {
		return "-"
	}
	return fmt.Sprintf("%.1f", float64(size)/1024)
}
