package domain

import "errors"

// AnalyzeResponse is the success payload shared by the HTTP and MCP surfaces.
// Codes are null when the classifier answer lacked that half.
type AnalyzeResponse struct {
	Success         bool          `json:"success"`
	ASCODCode       *string       `json:"ascod_code"`
	TOASTCode       *string       `json:"toast_code"`
	ClinicalText    string        `json:"clinical_text"`
	ASCOD           *ASCODProfile `json:"ascod"`
	TOAST           *ToastEntry   `json:"toast"`
	Result          string        `json:"result"`
	Strategy        string        `json:"strategy"`
	RulebookVersion string        `json:"rulebook_version"`
}

// ErrorResponse is the failure payload. It never carries codes.
type ErrorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
	Code    string `json:"code"`
}

// EncodeResponse carries a narrative rendered without classification.
type EncodeResponse struct {
	Success       bool   `json:"success"`
	ClinicalText  string `json:"clinical_text"`
	SchemaVersion int    `json:"schema_version"`
}

// RulebookResponse exposes the fixed rulebook text.
type RulebookResponse struct {
	Version     string `json:"version"`
	Rulebook    string `json:"rulebook"`
	Instruction string `json:"instruction"`
}

// NewAnalyzeResponse builds the success payload for a pipeline result.
func NewAnalyzeResponse(r *AnalysisResult) AnalyzeResponse {
	resp := AnalyzeResponse{
		Success:         true,
		ClinicalText:    r.ClinicalText,
		Result:          r.RawResponse,
		RulebookVersion: RulebookVersion,
	}
	if r.Codes.ASCOD != "" {
		code := r.Codes.ASCOD
		resp.ASCODCode = &code
	}
	if r.Codes.TOAST != "" {
		code := r.Codes.TOAST
		resp.TOASTCode = &code
	}
	if r.Result != nil {
		resp.ASCOD = r.Result.ASCOD
		resp.TOAST = r.Result.TOAST
		resp.Strategy = r.Result.Strategy
	}
	return resp
}

// NewErrorResponse builds the failure payload. Internal errors are reported
// without their details.
func NewErrorResponse(err error) ErrorResponse {
	code := ErrorCode(err)
	message := err.Error()
	var apiErr *APIError
	switch {
	case code == ErrCodeInternal:
		message = "internal server error"
	case errors.As(err, &apiErr):
		message = apiErr.Message
	}
	return ErrorResponse{Success: false, Error: message, Code: code}
}

// NewRulebookResponse returns the current rulebook.
func NewRulebookResponse() RulebookResponse {
	return RulebookResponse{
		Version:     RulebookVersion,
		Rulebook:    Rulebook,
		Instruction: ClassificationInstruction,
	}
}
