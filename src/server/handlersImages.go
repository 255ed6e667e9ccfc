package server

import (
	"net/http"

	app "imaginify/src/app"

	"github.com/gin-gonic/gin"
)

type ImageHandler struct {
	images *app.ImageService
}

func NewImageHandler(images *app.ImageService) *ImageHandler {
	return &ImageHandler{images: images}
}

func (h *ImageHandler) GetAllImages(c *gin.Context) {
	result, err := h.images.GetAllImages(c.Request.Context(), pageParam(c), c.Query("query"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, result)
}

func (h *ImageHandler) GetImage(c *gin.Context) {
	details, err := h.images.GetImageByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, details)
}

func (h *ImageHandler) AddImage(c *gin.Context) {
	var input app.ImageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondMessage(c, http.StatusBadRequest, "can not parse image: "+err.Error())
		return
	}
	image, err := h.images.AddImage(c.Request.Context(), currentUser(c).ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"status": "success", "payload": image})
}

func (h *ImageHandler) UpdateImage(c *gin.Context) {
	var input app.ImageInput
	if err := c.ShouldBindJSON(&input); err != nil {
		respondMessage(c, http.StatusBadRequest, "can not parse image: "+err.Error())
		return
	}
	input.ID = c.Param("id")
	image, err := h.images.UpdateImage(c.Request.Context(), currentUser(c).ID, input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondOK(c, image)
}

func (h *ImageHandler) DeleteImage(c *gin.Context) {
	if err := h.images.DeleteImage(c.Request.Context(), currentUser(c).ID, c.Param("id")); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "success"})
}
