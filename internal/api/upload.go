package api

import (
	"encoding/csv"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"
	"go.temporal.io/sdk/client"
)

// UploadHandler accepts a batch file listing input media URIs (one per row,
// first column) and starts one pipeline workflow per URI.
type UploadHandler struct {
	temporalClient client.Client
}

func NewUploadHandler(temporalClient client.Client) *UploadHandler {
	return &UploadHandler{temporalClient: temporalClient}
}

type UploadRequest struct {
	ProjectName   string `form:"project_name" binding:"required"`
	Description   string `form:"description"`
	Stage         string `form:"stage"`
	BlueprintName string `form:"blueprint_name"`
	OutputPrefix  string `form:"output_prefix" binding:"required"`
	ProfileARN    string `form:"profile_arn" binding:"required"`
	ResultBucket  string `form:"result_bucket" binding:"required"`
}

func (h *UploadHandler) UploadBatch(c *gin.Context) {
	var req UploadRequest
	if err := c.ShouldBind(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	file, header, err := c.Request.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "File upload error: " + err.Error()})
		return
	}
	defer file.Close()

	var inputs []string
	switch {
	case strings.HasSuffix(header.Filename, ".csv"):
		inputs, err = parseCSV(file)
	case strings.HasSuffix(header.Filename, ".tsv"):
		inputs, err = parseTSV(file)
	case strings.HasSuffix(header.Filename, ".xlsx"):
		inputs, err = parseExcel(file)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "unsupported file type"})
		return
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "file parsing error: " + err.Error()})
		return
	}

	started := make([]StartPipelineResponse, 0, len(inputs))
	var skipped []string
	seen := make(map[string]bool)
	for _, input := range inputs {
		input = strings.TrimSpace(input)
		if input == "" || seen[input] {
			continue
		}
		seen[input] = true
		if !strings.HasPrefix(input, "s3://") {
			skipped = append(skipped, input)
			continue
		}

		startReq := StartPipelineRequest{
			ProjectName:   req.ProjectName,
			Description:   req.Description,
			Stage:         req.Stage,
			BlueprintName: req.BlueprintName,
			InputURI:      input,
			OutputPrefix:  req.OutputPrefix,
			ProfileARN:    req.ProfileARN,
			ResultBucket:  req.ResultBucket,
		}
		run, err := h.temporalClient.ExecuteWorkflow(
			c.Request.Context(),
			client.StartWorkflowOptions{ID: "extract-" + uuid.NewString(), TaskQueue: TaskQueue},
			"ExtractionPipelineWorkflow",
			startReq.params(),
		)
		if err != nil {
			skipped = append(skipped, input)
			continue
		}
		started = append(started, StartPipelineResponse{WorkflowID: run.GetID(), RunID: run.GetRunID()})
	}

	c.JSON(http.StatusOK, gin.H{
		"parsed":    len(inputs),
		"started":   len(started),
		"skipped":   skipped,
		"workflows": started,
	})
}

func parseCSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var inputs []string
	for _, record := range records {
		if len(record) > 0 {
			inputs = append(inputs, record[0])
		}
	}
	return inputs, nil
}

func parseTSV(r io.Reader) ([]string, error) {
	reader := csv.NewReader(r)
	reader.Comma = '\t'
	records, err := reader.ReadAll()
	if err != nil {
		return nil, err
	}

	var inputs []string
	for _, record := range records {
		if len(record) > 0 {
			inputs = append(inputs, record[0])
		}
	}
	return inputs, nil
}

func parseExcel(r io.Reader) ([]string, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}

	var inputs []string
	for _, sheet := range f.GetSheetMap() {
		rows, err := f.GetRows(sheet)
		if err != nil {
			continue
		}
		for _, row := range rows {
			if len(row) > 0 {
				inputs = append(inputs, row[0])
			}
		}
	}
	return inputs, nil
}
