package notify

// Job kinds carried on the notification queue
const (
	JobKindPush  = "push"
	JobKindEmail = "email"
)

// Job is one queued delivery task
type Job struct {
	Kind  string    `json:"kind"`
	Push  *PushJob  `json:"push,omitempty"`
	Email *EmailJob `json:"email,omitempty"`
}

// PushJob delivers one notification to a set of device tokens
type PushJob struct {
	Tokens []string `json:"tokens"`
	Title  string   `json:"title"`
	Body   string   `json:"body"`
}

// EmailJob delivers one HTML email
type EmailJob struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	HTML    string `json:"html"`
}
