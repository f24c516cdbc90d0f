package form

// Field ids of the client contract form that other packages refer to by name.
const (
	FieldPatientName  = "patientName"
	FieldPatientCell  = "patientCell"
	FieldPaymentName  = "paymentName"
	FieldPaymentEmail = "paymentEmail"
	FieldPaymentCell  = "paymentCell"
	FieldSignedByDate = "signedByDate"
)

// DefaultSchema returns the seven-section client contract.
func DefaultSchema() *Schema {
	return &Schema{
		Version: "1",
		Sections: []SectionSpec{
			{
				ID:             "section-0",
				DisplayName:    "Patient Details",
				RequiredFields: []string{FieldPatientName, "patientID", "patientAge", FieldPatientCell, "patientAddress"},
				RequiredRadios: []string{"patientGender"},
			},
			{
				ID:             "section-1",
				DisplayName:    "Family Member 1",
				RequiredFields: []string{"family1Name", "family1Contact"},
			},
			{
				ID:          "section-2",
				DisplayName: "Family Member 2",
				Optional:    true,
			},
			{
				ID:          "section-3",
				DisplayName: "Emergency Contacts",
				Optional:    true,
			},
			{
				ID:             "section-4",
				DisplayName:    "Payment Info",
				RequiredFields: []string{FieldPaymentName, "paymentID", "paymentAddress", FieldPaymentCell, FieldPaymentEmail},
			},
			{
				ID:                 "section-5",
				DisplayName:        "Terms & Conditions",
				RequiredCheckboxes: []string{"agreeTerms"},
			},
			{
				ID:                "section-6",
				DisplayName:       "Signature",
				RequiredFields:    []string{"signedByName", FieldSignedByDate},
				RequiresSignature: true,
			},
		},
	}
}
