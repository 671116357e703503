package handlers

import (
	"net/http"
	"strconv"

	"famstore/services"
	"famstore/utils"

	"github.com/gin-gonic/gin"
)

// UploadFile accepts a single-shot multipart upload. Fields: file,
// parent_id (optional, "" or "root" for the home folder).
func UploadFile(c *gin.Context) {
	userID := c.GetString("user_id")
	parent := services.ParseParentRef(c.PostForm("parent_id"))

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "failed to read uploaded file")
		return
	}
	defer file.Close()

	item, uerr := getServices().Uploads.Upload(c.Request.Context(), userID, services.UploadInput{
		Parent:       parent,
		Filename:     header.Filename,
		DeclaredType: header.Header.Get("Content-Type"),
		Size:         header.Size,
		Src:          file,
	})
	if respondServiceError(c, uerr) {
		return
	}

	utils.Success(c, item)
}

// UploadChunk accepts one chunk of a client-chosen upload session.
// Fields: chunk, upload_id, chunk_index, total_chunks, parent_id,
// filename, content_type. The request carrying the last missing index
// also performs the merge and answers with the finished file id.
func UploadChunk(c *gin.Context) {
	userID := c.GetString("user_id")

	uploadID := c.PostForm("upload_id")
	if uploadID == "" {
		utils.Error(c, http.StatusBadRequest, "upload_id is required")
		return
	}
	chunkIndex, err := strconv.Atoi(c.PostForm("chunk_index"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid chunk_index")
		return
	}
	totalChunks, err := strconv.Atoi(c.PostForm("total_chunks"))
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "invalid total_chunks")
		return
	}
	filename := c.PostForm("filename")
	if filename == "" {
		utils.Error(c, http.StatusBadRequest, "filename is required")
		return
	}

	chunk, _, err := c.Request.FormFile("chunk")
	if err != nil {
		utils.Error(c, http.StatusBadRequest, "failed to read uploaded chunk")
		return
	}
	defer chunk.Close()

	out, uerr := getServices().Uploads.UploadChunk(c.Request.Context(), userID, services.ChunkInput{
		UploadID:     uploadID,
		ChunkIndex:   chunkIndex,
		TotalChunks:  totalChunks,
		Parent:       services.ParseParentRef(c.PostForm("parent_id")),
		Filename:     filename,
		DeclaredType: c.PostForm("content_type"),
		Src:          chunk,
	})
	if respondServiceError(c, uerr) {
		return
	}

	utils.Success(c, out)
}

func GetUploadStatus(c *gin.Context) {
	userID := c.GetString("user_id")
	uploadID := c.Param("upload_id")

	out, err := getServices().Uploads.UploadStatus(c.Request.Context(), userID, uploadID)
	if respondServiceError(c, err) {
		return
	}

	utils.Success(c, out)
}
