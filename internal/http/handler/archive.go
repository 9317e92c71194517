package handler

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"strings"
	"unicode"

	"github.com/gofiber/fiber/v2"

	"qiblaapi/internal/http/middleware"
	"qiblaapi/internal/service"
	"qiblaapi/internal/storage"
)

type uploadResponse struct {
	Message  string `json:"message"`
	Email    string `json:"email"`
	FileName string `json:"fileName"`
	FilePath string `json:"filePath"`
}

// UploadZip stores a ZIP archive as the current archive for an email.
//
// @Summary Upload a ZIP archive
// @Tags archives
// @Accept multipart/form-data
// @Produce json
// @Param email formData string true "Owner email"
// @Param file formData file true "ZIP archive (max 50 MiB)"
// @Success 200 {object} uploadResponse
// @Failure 400 {object} errorPayload
// @Failure 413 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/upload-zip [post]
func UploadZip(svc service.ArchiveService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := strings.TrimSpace(c.FormValue("email"))
		if email == "" {
			return writeError(c, fiber.StatusBadRequest, "EMAIL_REQUIRED", "Email parameter is required")
		}

		fh, err := c.FormFile("file")
		if err != nil {
			return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "ZIP file is required")
		}

		f, err := fh.Open()
		if err != nil {
			log.Error("upload_open_failed", "request_id", middleware.RequestIDFrom(c), "error", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}
		defer f.Close()

		res, err := svc.Upload(c.UserContext(), email, f, fh.Filename, fh.Header.Get(fiber.HeaderContentType), fh.Size)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmailRequired):
				return writeError(c, fiber.StatusBadRequest, "EMAIL_REQUIRED", "Email parameter is required")
			case errors.Is(err, service.ErrFileRequired), errors.Is(err, storage.ErrReaderNil):
				return writeError(c, fiber.StatusBadRequest, "FILE_REQUIRED", "ZIP file is required")
			case errors.Is(err, storage.ErrContentTypeRejected):
				return writeError(c, fiber.StatusBadRequest, "INVALID_FILE_TYPE", "Only ZIP files are allowed")
			case errors.Is(err, storage.ErrSizeExceeded):
				return writeError(c, fiber.StatusRequestEntityTooLarge, "FILE_TOO_LARGE", "File too large")
			}
			log.Error("upload_failed", "request_id", middleware.RequestIDFrom(c), "error", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}

		return c.JSON(uploadResponse{
			Message:  "File uploaded successfully",
			Email:    res.Email,
			FileName: res.File.Name,
			FilePath: res.File.Path,
		})
	}
}

// GetZip streams the archive most recently uploaded for an email.
//
// @Summary Download the latest ZIP archive for an email
// @Tags archives
// @Produce application/zip
// @Param email query string true "Owner email"
// @Success 200 {file} file
// @Failure 400 {object} errorPayload
// @Failure 404 {object} errorPayload
// @Failure 500 {object} errorPayload
// @Router /api/get-zip [get]
func GetZip(svc service.ArchiveService, log *slog.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		email := strings.TrimSpace(c.Query("email"))
		if email == "" {
			return writeError(c, fiber.StatusBadRequest, "EMAIL_REQUIRED", "Email parameter is required")
		}

		dl, err := svc.Retrieve(c.UserContext(), email)
		if err != nil {
			switch {
			case errors.Is(err, service.ErrEmailRequired):
				return writeError(c, fiber.StatusBadRequest, "EMAIL_REQUIRED", "Email parameter is required")
			case errors.Is(err, service.ErrNoFilesFound):
				return writeError(c, fiber.StatusNotFound, "NO_FILES", "No files found")
			case errors.Is(err, service.ErrNoFileForEmail):
				return writeError(c, fiber.StatusNotFound, "NOT_FOUND", "No file found for this email")
			case errors.Is(err, service.ErrFileMissingOnServer):
				log.Warn("indexed_file_missing", "request_id", middleware.RequestIDFrom(c), "email", email)
				return writeError(c, fiber.StatusNotFound, "FILE_MISSING", "File not found on server")
			}
			log.Error("download_failed", "request_id", middleware.RequestIDFrom(c), "error", err)
			return writeError(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
		}

		ct := dl.File.ContentType
		if ct == "" {
			ct = storage.ZipContentType
		}
		c.Set(fiber.HeaderContentType, ct)
		c.Set(fiber.HeaderContentDisposition, contentDisposition(dl.File.OriginalName))

		// fasthttp closes the stream once the response is written.
		return c.SendStream(dl.Body, int(dl.File.Size))
	}
}

// contentDisposition builds an attachment header. Names outside printable ASCII get an
// RFC 5987 filename* parameter next to an ASCII fallback.
func contentDisposition(name string) string {
	ascii := true
	for _, r := range name {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			ascii = false
			break
		}
	}
	if ascii {
		return fmt.Sprintf(`attachment; filename="%s"`, escapeQuoted(name))
	}

	fallback := strings.Map(func(r rune) rune {
		if r > unicode.MaxASCII || !unicode.IsPrint(r) {
			return '_'
		}
		return r
	}, name)
	return fmt.Sprintf(`attachment; filename="%s"; filename*=UTF-8''%s`, escapeQuoted(fallback), url.PathEscape(name))
}

func escapeQuoted(s string) string {
	return strings.NewReplacer(`\`, `\\`, `"`, `\"`).Replace(s)
}
