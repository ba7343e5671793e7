package domain

// EmailMessage is the opaque payload handed to the outbound mail sender.
type EmailMessage struct {
	To       string
	Subject  string
	HTMLBody string
}
