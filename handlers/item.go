package handlers

import (
	"fmt"
	"net/http"

	"famstore/services"
	"famstore/utils"

	"github.com/gin-gonic/gin"
)

type CreateFolderRequest struct {
	Name     string `json:"name" binding:"required,max=255"`
	ParentID string `json:"parent_id"`
}

type RenameItemRequest struct {
	Name string `json:"name" binding:"required,max=255"`
}

func CreateFolder(c *gin.Context) {
	userID := c.GetString("user_id")

	var req CreateFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	folder, err := getServices().Items.CreateFolder(c.Request.Context(), userID, services.ParseParentRef(req.ParentID), req.Name)
	if respondServiceError(c, err) {
		return
	}

	utils.Success(c, folder)
}

func ListItems(c *gin.Context) {
	userID := c.GetString("user_id")
	parent := services.ParseParentRef(c.Query("parent_id"))

	items, err := getServices().Items.List(c.Request.Context(), userID, parent)
	if respondServiceError(c, err) {
		return
	}

	utils.Success(c, gin.H{"items": items})
}

func RenameItem(c *gin.Context) {
	userID := c.GetString("user_id")
	itemID := c.Param("id")

	var req RenameItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}

	item, err := getServices().Items.Rename(c.Request.Context(), userID, itemID, req.Name)
	if respondServiceError(c, err) {
		return
	}

	utils.Success(c, item)
}

func DeleteItem(c *gin.Context) {
	userID := c.GetString("user_id")
	itemID := c.Param("id")

	err := getServices().Items.Delete(c.Request.Context(), userID, itemID)
	if respondServiceError(c, err) {
		return
	}

	utils.SuccessWithMessage(c, "deleted", nil)
}

// GetContent streams a file's bytes. Range requests are handled by
// http.ServeFile under gin's c.File.
func GetContent(c *gin.Context) {
	userID := c.GetString("user_id")
	itemID := c.Param("id")

	info, err := getServices().Items.GetContentInfo(c.Request.Context(), userID, itemID)
	if respondServiceError(c, err) {
		return
	}

	c.Header("Content-Type", info.ContentType)
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", info.Item.Name))
	c.File(info.AbsPath)
}

func GetThumbnail(c *gin.Context) {
	userID := c.GetString("user_id")
	itemID := c.Param("id")

	// Ownership check goes through the metadata row, not the disk path.
	if _, err := getServices().Items.GetContentInfo(c.Request.Context(), userID, itemID); respondServiceError(c, err) {
		return
	}

	thumbPath, ok := getServices().Items.ThumbnailPath(userID, itemID)
	if !ok {
		utils.Error(c, http.StatusNotFound, "thumbnail not found")
		return
	}

	c.Header("Content-Type", "image/jpeg")
	c.File(thumbPath)
}

func DownloadFolder(c *gin.Context) {
	userID := c.GetString("user_id")
	folderID := c.Param("id")

	archive, err := getServices().Archive.BuildFolderArchive(c.Request.Context(), userID, services.ParseParentRef(folderID))
	if respondServiceError(c, err) {
		return
	}
	defer archive.Cleanup()

	c.FileAttachment(archive.Path, archive.Name)
}
