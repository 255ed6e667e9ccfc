package server

import (
	"bytes"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"

	app "imaginify/src/app"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type (
	MediaHandler struct {
		assets app.AssetStorage
		folder string
		logger *zap.Logger
	}

	UploadedMedia struct {
		PublicID  string `json:"publicId"`
		SecureURL string `json:"secureURL"`
		Width     int    `json:"width"`
		Height    int    `json:"height"`
		Format    string `json:"format"`
	}
)

const maxUploadSize = 10 << 20

var (
	imageAvailableFormats = []string{"png", "jpg", "jpeg", "gif"}
	// decoder name to stored extension
	imageExtensions = map[string]string{"png": "png", "jpeg": "jpg", "gif": "gif"}
)

func NewMediaHandler(assets app.AssetStorage, folder string, logger *zap.Logger) *MediaHandler {
	return &MediaHandler{assets: assets, folder: folder, logger: logger}
}

func (m *MediaHandler) userPrefix(user *app.User) string {
	return app.OwnerPrefix(m.folder, user.ID)
}

// ListMedia returns presigned URLs for everything the caller uploaded.
func (m *MediaHandler) ListMedia(c *gin.Context) {
	user := currentUser(c)
	urls, err := m.assets.ListObjects(c.Request.Context(), m.userPrefix(user), imageAvailableFormats)
	if err != nil {
		m.logger.Error("can not list uploads", zap.String("user", user.ID.Hex()), zap.Error(err))
		respondError(c, fmt.Errorf("can not fetch images from storage: %w", err))
		return
	}
	result := make([]string, 0, len(urls))
	for _, u := range urls {
		result = append(result, u.String())
	}
	respondOK(c, result)
}

// PostMedia stores the multipart "image" field and reports its public id
// and pixel dimensions.
func (m *MediaHandler) PostMedia(c *gin.Context) {
	user := currentUser(c)
	c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxUploadSize+1<<20)
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		respondMessage(c, http.StatusBadRequest, "can not find image in request")
		return
	}
	defer file.Close()

	// Read the file into a buffer
	var buffer bytes.Buffer
	n, err := io.Copy(&buffer, io.LimitReader(file, maxUploadSize+1))
	if err != nil {
		respondError(c, fmt.Errorf("failed to read file: %w", err))
		return
	}
	if n > maxUploadSize {
		respondMessage(c, http.StatusRequestEntityTooLarge, "image is too large")
		return
	}
	imageConfig, format, err := image.DecodeConfig(bytes.NewReader(buffer.Bytes()))
	if err != nil {
		respondError(c, fmt.Errorf("%w: unsupported image %q", app.ErrInvalidInput, header.Filename))
		return
	}
	ext, ok := imageExtensions[format]
	if !ok {
		respondError(c, fmt.Errorf("%w: unsupported format %q", app.ErrInvalidInput, format))
		return
	}

	key := m.userPrefix(user) + uuid.NewString() + "." + ext
	if err := m.assets.UploadFile(c.Request.Context(), key, &buffer, n, "image/"+format); err != nil {
		m.logger.Error("can not upload image", zap.String("key", key), zap.Error(err))
		respondError(c, err)
		return
	}
	secureURL, err := m.assets.PresignedURL(c.Request.Context(), key)
	if err != nil {
		respondError(c, err)
		return
	}
	m.logger.Info("uploaded image", zap.String("user", user.ID.Hex()), zap.String("key", key))
	respondOK(c, UploadedMedia{
		PublicID:  key,
		SecureURL: secureURL.String(),
		Width:     imageConfig.Width,
		Height:    imageConfig.Height,
		Format:    ext,
	})
}
