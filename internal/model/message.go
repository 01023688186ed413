package model

// Message is the payload posted to the Teams incoming webhook.
type Message struct {
	Title string `json:"title"`
	Body  string `json:"body"`
}
