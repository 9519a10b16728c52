package enums

import "strings"

// RejectionReason is a catalog entry stores pick when declining an order.
// The data layer stores the label text, not the code.
type RejectionReason struct {
	Code  string `json:"code"`
	Label string `json:"label"`
}

var rejectionReasons = []RejectionReason{
	{Code: "R1", Label: "Medicine Not Available"},
	{Code: "R2", Label: "Prescription Unclear"},
	{Code: "R3", Label: "Out of Delivery Area"},
	{Code: "R4", Label: "Store Closed"},
	{Code: "R5", Label: "Need Valid Prescription"},
}

// RejectionReasons returns a copy of the catalog in display order.
func RejectionReasons() []RejectionReason {
	out := make([]RejectionReason, len(rejectionReasons))
	copy(out, rejectionReasons)
	return out
}

// ResolveRejectionReason maps a reply code (R1..R5) to its label. Free text
// that is not a known code is returned trimmed.
func ResolveRejectionReason(value string) string {
	trimmed := strings.TrimSpace(value)
	for _, reason := range rejectionReasons {
		if strings.EqualFold(reason.Code, trimmed) {
			return reason.Label
		}
	}
	return trimmed
}
