// images.go — загрузка и выдача сохранённых изображений товаров.
package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-chi/chi/v5"

	"github.com/bigkaa/goartstore/catalog-admin/internal/service"
	"github.com/bigkaa/goartstore/catalog-admin/internal/ui/i18n"
	uimiddleware "github.com/bigkaa/goartstore/catalog-admin/internal/ui/middleware"
)

// uploadResponse — ответ на загрузку изображения.
type uploadResponse struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// HandleUploadImage — POST /products/images
// Принимает multipart-поле file, возвращает JSON с ключом изображения.
func (h *ProductsHandler) HandleUploadImage(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload+1<<20)
	file, header, err := r.FormFile("file")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": i18n.T(r.Context(), "alert.file_required")})
		return
	}
	defer file.Close()

	data, contentType, err := readImage(file, h.maxUpload)
	if err == nil {
		var id string
		id, err = h.products.UploadImage(r.Context(), user, header.Filename, contentType, data)
		if err == nil {
			writeJSON(w, http.StatusCreated, uploadResponse{ID: id, URL: "/images/" + url.PathEscape(id)})
			return
		}
	}

	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  i18n.T(r.Context(), "alert.check_form"),
			"fields": translateFields(r, verr.Fields),
		})
	case errors.Is(err, service.ErrPermissionDenied):
		writeJSON(w, http.StatusForbidden, map[string]string{"error": i18n.T(r.Context(), msgForbidden)})
	default:
		h.logger.Error("Ошибка загрузки изображения", slog.String("error", err.Error()))
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": i18n.T(r.Context(), msgUnavailable)})
	}
}

// HandleImage — GET /images/{id}
// Отдаёт сохранённое изображение с его типом содержимого.
func (h *ProductsHandler) HandleImage(w http.ResponseWriter, r *http.Request) {
	user := uimiddleware.UserFromContext(r.Context())

	blob, err := h.products.Image(r.Context(), user, chi.URLParam(r, "id"))
	switch {
	case errors.Is(err, service.ErrNotFound):
		http.NotFound(w, r)
		return
	case errors.Is(err, service.ErrPermissionDenied):
		http.Error(w, i18n.T(r.Context(), msgForbidden), http.StatusForbidden)
		return
	case err != nil:
		h.logger.Error("Ошибка чтения изображения", slog.String("error", err.Error()))
		http.Error(w, i18n.T(r.Context(), msgUnavailable), http.StatusServiceUnavailable)
		return
	}

	contentType, data, err := blob.Decode()
	if err != nil {
		h.logger.Warn("Повреждённое изображение",
			slog.String("id", chi.URLParam(r, "id")),
			slog.String("error", err.Error()),
		)
		http.NotFound(w, r)
		return
	}

	if !service.IsImageContentType(contentType) {
		// Сохранённый ранее файл неразрешённого типа отдаётся только как вложение
		contentType = "application/octet-stream"
		w.Header().Set("Content-Disposition", "attachment")
	}
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "private, max-age=3600")
	w.Header().Set("X-Content-Type-Options", "nosniff")
	w.Header().Set("Content-Security-Policy", "default-src 'none'; sandbox")
	_, _ = w.Write(data)
}

// readImage читает файл изображения не больше limit байт и определяет
// тип содержимого по самим данным. Заявленный клиентом тип не учитывается;
// принимаются только растровые форматы.
func readImage(file io.Reader, limit int64) ([]byte, string, error) {
	data, err := io.ReadAll(io.LimitReader(file, limit+1))
	if err != nil {
		return nil, "", &service.ValidationError{Fields: map[string]string{"images": "validation.upload_unreadable"}}
	}
	if int64(len(data)) > limit {
		return nil, "", &service.ValidationError{Fields: map[string]string{"images": "validation.upload_too_large"}}
	}

	contentType := http.DetectContentType(data)
	if !service.IsImageContentType(contentType) {
		return nil, "", &service.ValidationError{Fields: map[string]string{"images": "validation.upload_not_image"}}
	}
	return data, contentType, nil
}

// translateFields переводит ключи сообщений об ошибках полей на язык запроса.
func translateFields(r *http.Request, fields map[string]string) map[string]string {
	out := make(map[string]string, len(fields))
	for field, key := range fields {
		out[field] = i18n.T(r.Context(), key)
	}
	return out
}

// writeJSON записывает JSON-ответ с указанным статусом.
func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}
