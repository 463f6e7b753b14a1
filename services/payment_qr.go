package services

import (
	"fmt"
	"strings"

	"github.com/inkdesk/commission-api/models"
	"github.com/inkdesk/commission-api/utils"
	"github.com/skip2/go-qrcode"
)

// PaymentQRSize is the edge length of the generated PNG in pixels
const PaymentQRSize = 320

// ErrBankDetailsMissing is returned when the artist has not filled in bank details
var ErrBankDetailsMissing = &StateError{
	Code:    "BANK_DETAILS_MISSING",
	Message: "The artist has not provided bank transfer details yet",
}

// PaymentQR renders the transfer instructions for an approved order as a PNG
// QR code. The transfer reference is the short order number.
func PaymentQR(profile *models.ArtistProfile, order *models.Order) ([]byte, error) {
	if order.Status != models.OrderApproved {
		return nil, ErrOrderNotApproved
	}
	if profile == nil || profile.BankAccountNumber == "" {
		return nil, ErrBankDetailsMissing
	}

	png, err := qrcode.Encode(PaymentInstructions(profile, order), qrcode.Medium, PaymentQRSize)
	if err != nil {
		return nil, fmt.Errorf("failed to encode payment QR: %w", err)
	}
	return png, nil
}

// PaymentInstructions is the text encoded in the payment QR code
func PaymentInstructions(profile *models.ArtistProfile, order *models.Order) string {
	lines := []string{
		"Bank: " + profile.BankName,
		"Account: " + profile.BankAccountNumber,
		"Name: " + profile.BankAccountName,
		"Amount: " + utils.FormatVND(order.Price),
		"Reference: " + order.ShortOrderNo(),
	}
	return strings.Join(lines, "\n")
}
