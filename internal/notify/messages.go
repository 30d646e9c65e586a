package notify

import "fmt"

const (
	TextAddedToMain       = "You have been added to the primary distribution list."
	TextAddedToWaiting    = "You have been added to the waiting list."
	TextRemovedFromMain   = "You have been removed from the primary distribution list."
	TextRemovedFromWait   = "You have been removed from the waiting list."
	TextNotInAnyList      = "You were not found in our distribution lists."
	TextPromotedToMain    = "Congratulations! You have been promoted to the primary distribution list."
	volunteerCodePrefix   = "code_bénévole:"
	voucherIssuedTemplate = "Your unique QR code is: %s\nValid until: %s"
	voucherRedeemedFormat = "Your QR code %s has been validated successfully!"
)

func VoucherIssued(to, code, validOn, mediaURL string) Message {
	return Message{To: to, Body: fmt.Sprintf(voucherIssuedTemplate, code, validOn), MediaURL: mediaURL}
}

func VoucherRedeemed(to, code string) Message {
	return Message{To: to, Body: fmt.Sprintf(voucherRedeemedFormat, code)}
}

// VolunteerCredentials carries the generated first-login password.
func VolunteerCredentials(to, password string) Message {
	return Message{To: to, Body: volunteerCodePrefix + password}
}
