package task

// Status is the lifecycle state of a single category task within a batch.
type Status string

const (
	StatusPending         Status = "pending"
	StatusGathering       Status = "gathering"
	StatusGathered        Status = "gathered"
	StatusProcessing      Status = "processing"
	StatusGeneratingImage Status = "generating_image"
	StatusComposing       Status = "composing"
	StatusUploading       Status = "uploading"
	StatusSendingWebhook  Status = "sending_webhook"
	StatusDone            Status = "done"
	StatusError           Status = "error"
)

// Terminal reports whether no further transitions are allowed from s.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusError
}

// Result holds the final artifacts of a successfully processed category.
type Result struct {
	Headline   string `json:"headline"`
	ImageURL   string `json:"image_url"`
	Caption    string `json:"caption"`
	SourceURL  string `json:"source_url"`
	SourceName string `json:"source_name"`
}

// Task tracks one category through the batch pipeline.
type Task struct {
	ID           string  `json:"id"`
	CategoryName string  `json:"category_name"`
	Status       Status  `json:"status"`
	Result       *Result `json:"result,omitempty"`
	Error        string  `json:"error,omitempty"`
}
