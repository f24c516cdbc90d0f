package form

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultSchemaIsValid(t *testing.T) {
	s := DefaultSchema()
	require.NoError(t, s.Validate())
	assert.Len(t, s.Sections, 7)
	assert.Equal(t, 6, s.SignOff())
	assert.Equal(t, 4, s.Index("section-4"))
	assert.Equal(t, -1, s.Index("section-9"))

	var optional []string
	for _, sec := range s.Sections {
		if sec.Optional {
			optional = append(optional, sec.DisplayName)
		}
	}
	assert.Equal(t, []string{"Family Member 2", "Emergency Contacts"}, optional)
}

func TestSchemaValidate(t *testing.T) {
	signOff := SectionSpec{ID: "sign", DisplayName: "Sign", RequiresSignature: true}

	tests := []struct {
		name     string
		sections []SectionSpec
		wantErr  bool
	}{
		{"empty", nil, true},
		{"only sign-off", []SectionSpec{signOff}, false},
		{"missing id", []SectionSpec{{DisplayName: "x"}, signOff}, true},
		{"duplicate id", []SectionSpec{{ID: "a"}, {ID: "a"}, signOff}, true},
		{"no signature", []SectionSpec{{ID: "a"}}, true},
		{"two signatures", []SectionSpec{{ID: "a", RequiresSignature: true}, signOff}, true},
		{"signature not last", []SectionSpec{signOff, {ID: "b"}}, true},
		{"optional sign-off", []SectionSpec{{ID: "a"}, {ID: "sign", RequiresSignature: true, Optional: true}}, true},
		{"optional middle", []SectionSpec{{ID: "a"}, {ID: "b", Optional: true}, signOff}, false},
		{"reserved field id", []SectionSpec{{ID: "a", RequiredFields: []string{"signature"}}, signOff}, true},
		{"reserved checkbox id", []SectionSpec{{ID: "a", RequiredCheckboxes: []string{"submittedAt"}}, signOff}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := &Schema{Sections: tt.sections}
			err := s.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidSchema))
			} else {
				require.NoError(t, err)
			}
		})
	}
}

func TestLoadSchemaYAML(t *testing.T) {
	doc := `
version: "2"
sections:
  - id: applicant
    display_name: Applicant
    required_fields: [name, phone]
    required_radios: [contactMethod]
  - id: extras
    display_name: Extras
    optional: true
  - id: consent
    display_name: Consent
    required_checkboxes: [agree]
    requires_signature: true
`
	path := filepath.Join(t.TempDir(), "schema.yaml")
	require.NoError(t, os.WriteFile(path, []byte(doc), 0o644))

	s, err := LoadSchema(path)
	require.NoError(t, err)
	assert.Equal(t, "2", s.Version)
	require.Len(t, s.Sections, 3)
	assert.Equal(t, []string{"name", "phone"}, s.Sections[0].RequiredFields)
	assert.Equal(t, []string{"contactMethod"}, s.Sections[0].RequiredRadios)
	assert.True(t, s.Sections[1].Optional)
	assert.True(t, s.Sections[2].RequiresSignature)
	assert.Equal(t, []string{"agree"}, s.Sections[2].RequiredCheckboxes)
}

func TestLoadSchemaRejectsInvalid(t *testing.T) {
	_, err := ParseSchema([]byte("sections:\n  - id: a\n"))
	require.ErrorIs(t, err, ErrInvalidSchema)

	_, err = LoadSchema(filepath.Join(t.TempDir(), "missing.yaml"))
	require.Error(t, err)
}

func TestLoadSchemaOrDefault(t *testing.T) {
	s, err := LoadSchemaOrDefault("")
	require.NoError(t, err)
	assert.Equal(t, DefaultSchema(), s)
}

func TestFieldValuesCopyOnWrite(t *testing.T) {
	base := NewFieldValues(time.Date(2026, 3, 14, 9, 0, 0, 0, time.UTC))
	assert.Equal(t, "2026-03-14", base.Text(FieldSignedByDate))

	next := base.WithText(FieldPatientName, "Ada").WithChecked("agreeTerms", true).WithText("patientGender", "female")
	assert.Equal(t, "", base.Text(FieldPatientName), "original must not change")
	assert.Equal(t, "Ada", next.Text(FieldPatientName))
	assert.True(t, next.Checked("agreeTerms"))

	choice, ok := next.Choice("patientGender")
	assert.True(t, ok)
	assert.Equal(t, "female", choice)

	_, ok = next.Choice("unknownGroup")
	assert.False(t, ok)

	var nilValues FieldValues
	assert.NotNil(t, nilValues.Clone())
}

func TestParseSignature(t *testing.T) {
	sig, err := ParseSignature("")
	require.NoError(t, err)
	assert.True(t, sig.IsEmpty())

	sig, err = ParseSignature("data:image/png;base64,iVBORw0KGgo=")
	require.NoError(t, err)
	assert.False(t, sig.IsEmpty())
	assert.Equal(t, "data:image/png;base64,iVBORw0KGgo=", sig.DataURI())

	for _, bad := range []string{
		"not a uri",
		"data:text/plain;base64,aGk=",
		"data:image/png,rawbytes",
		"data:image/png;base64,***",
	} {
		_, err := ParseSignature(bad)
		assert.ErrorIs(t, err, ErrBadSignature, bad)
	}
}

func TestSignatureFromPNG(t *testing.T) {
	assert.True(t, SignatureFromPNG(nil).IsEmpty())

	sig := SignatureFromPNG([]byte{0x89, 'P', 'N', 'G'})
	assert.False(t, sig.IsEmpty())

	round, err := ParseSignature(sig.DataURI())
	require.NoError(t, err)
	assert.Equal(t, sig, round)
	assert.True(t, NoSignature.IsEmpty())
}
