package handlers

import (
	"fmt"
	"io"
	"log"
	"mime/multipart"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"backend/internal/models"
)

const prescriptionFileField = "prescriptions"

var allowedUploadExtensions = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".pdf":  "application/pdf",
}

var allowedUploadMimes = map[string]struct{}{
	"image/jpeg":      {},
	"image/png":       {},
	"application/pdf": {},
}

// validateUploadFile checks extension, declared mime type and size cap for a
// single uploaded file.
func validateUploadFile(file *multipart.FileHeader, maxSize int64) (string, error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	mimeType, ok := allowedUploadExtensions[extension]
	if !ok {
		return "", fmt.Errorf("unsupported file type: only JPEG, PNG and PDF files are allowed")
	}

	if declared := file.Header.Get("Content-Type"); declared != "" {
		if _, ok := allowedUploadMimes[declared]; !ok {
			return "", fmt.Errorf("unsupported file type: only JPEG, PNG and PDF files are allowed")
		}
		mimeType = declared
	}

	if file.Size > maxSize {
		return "", fmt.Errorf("file too large (max %dMB)", maxSize>>20)
	}

	return mimeType, nil
}

func storeUploadedFile(file *multipart.FileHeader, uploadDir, subdir string) (filename, relPath string, err error) {
	extension := strings.ToLower(filepath.Ext(file.Filename))
	filename = primitive.NewObjectID().Hex() + extension

	dir := filepath.Join(uploadDir, subdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		log.Printf("[UPLOAD] storeUploadedFile: failed to create directory %s: %v", dir, err)
		return "", "", err
	}

	fullPath := filepath.Join(dir, filename)

	out, err := os.Create(fullPath)
	if err != nil {
		log.Printf("[UPLOAD] storeUploadedFile: failed to create file %s: %v", fullPath, err)
		return "", "", err
	}
	defer out.Close()

	in, err := file.Open()
	if err != nil {
		log.Printf("[UPLOAD] storeUploadedFile: failed to open upload %s: %v", file.Filename, err)
		return "", "", err
	}
	defer in.Close()

	if _, err := io.Copy(out, in); err != nil {
		log.Printf("[UPLOAD] storeUploadedFile: failed to save file %s: %v", fullPath, err)
		return "", "", err
	}

	return filename, filepath.ToSlash(filepath.Join("uploads", subdir, filename)), nil
}

// savePrescriptionFiles validates and persists the multipart file set for a
// prescription submission.
func savePrescriptionFiles(c *gin.Context, uploadDir string, maxSize int64, maxFiles int) ([]models.PrescriptionFile, error) {
	form, err := c.MultipartForm()
	if err != nil {
		return nil, fmt.Errorf("invalid multipart form")
	}

	uploads := form.File[prescriptionFileField]
	if len(uploads) == 0 {
		return nil, fmt.Errorf("please upload at least one prescription file")
	}
	if len(uploads) > maxFiles {
		return nil, fmt.Errorf("too many files (max %d)", maxFiles)
	}

	files := make([]models.PrescriptionFile, 0, len(uploads))
	for _, upload := range uploads {
		mimeType, err := validateUploadFile(upload, maxSize)
		if err != nil {
			removeUploadedFiles(uploadDir, files)
			return nil, err
		}

		filename, relPath, err := storeUploadedFile(upload, uploadDir, "prescriptions")
		if err != nil {
			removeUploadedFiles(uploadDir, files)
			return nil, err
		}

		files = append(files, models.PrescriptionFile{
			Filename:     filename,
			OriginalName: upload.Filename,
			Path:         relPath,
			MimeType:     mimeType,
			Size:         upload.Size,
			UploadedAt:   time.Now(),
		})
	}

	return files, nil
}

// savePaymentProof persists a single bank-transfer receipt upload.
func savePaymentProof(c *gin.Context, uploadDir string, maxSize int64) (string, error) {
	file, err := c.FormFile("paymentProof")
	if err != nil {
		return "", fmt.Errorf("please upload a payment proof file")
	}

	if _, err := validateUploadFile(file, maxSize); err != nil {
		return "", err
	}

	_, relPath, err := storeUploadedFile(file, uploadDir, "payments")
	if err != nil {
		return "", err
	}
	return relPath, nil
}

// removeUploadedFiles deletes previously stored uploads after a failed
// submission. Paths outside the upload root are refused.
func removeUploadedFiles(uploadDir string, files []models.PrescriptionFile) {
	for _, file := range files {
		if err := safeDeleteUpload(uploadDir, file.Path); err != nil {
			log.Println("[UPLOAD] [ERROR] cleanup failed:", err)
		}
	}
}

func safeDeleteUpload(uploadDir, relPath string) error {
	trimmed := strings.TrimSpace(relPath)
	if trimmed == "" {
		return nil
	}

	cleanRel := path.Clean("/" + strings.TrimPrefix(trimmed, "/"))
	cleanRel = strings.TrimPrefix(cleanRel, "/")

	if !strings.HasPrefix(cleanRel, "uploads/") {
		return fmt.Errorf("refusing to delete non-upload path: %s", relPath)
	}
	cleanRel = strings.TrimPrefix(cleanRel, "uploads/")

	cleanBase := filepath.Clean(uploadDir)
	targetPath := filepath.Join(cleanBase, filepath.FromSlash(cleanRel))
	cleanTarget := filepath.Clean(targetPath)
	if cleanTarget != cleanBase && !strings.HasPrefix(cleanTarget, cleanBase+string(os.PathSeparator)) {
		return fmt.Errorf("refusing to delete path outside upload root: %s", relPath)
	}

	if err := os.Remove(cleanTarget); err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return err
	}

	return nil
}
