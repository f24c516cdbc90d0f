package submission

import (
	"net/url"
	"sort"
	"time"

	"github.com/sbenjam1n/clientintake/internal/form"
	"golang.org/x/text/unicode/norm"
)

// Keys added to the field values when a record is serialised.
const (
	KeySignature   = form.ReservedSignature
	KeySubmittedAt = form.ReservedSubmittedAt
)

// Record is the completed form handed to the transport.
type Record struct {
	ID          string            `json:"id"`
	Values      map[string]string `json:"values"`
	Signature   string            `json:"signature"`
	SubmittedAt time.Time         `json:"submitted_at"`
}

// BuildRecord flattens the field values (checkboxes become "on" when checked, unchecked boxes
// are omitted as in a browser form post) and stamps the submission time in UTC.
func BuildRecord(fields form.FieldValues, sig form.Signature, now time.Time) Record {
	values := make(map[string]string, len(fields))
	for id, v := range fields {
		switch {
		case v.Text != "":
			values[id] = norm.NFC.String(v.Text)
		case v.Checked:
			values[id] = "on"
		}
	}

	rec := Record{Values: values, SubmittedAt: now.UTC()}
	if sig != nil && !sig.IsEmpty() {
		rec.Signature = sig.DataURI()
	}
	return rec
}

// Form returns the record as form values, fields in sorted order, then the signature and the
// ISO-8601 submission timestamp.
func (r Record) Form() url.Values {
	keys := make([]string, 0, len(r.Values))
	for k := range r.Values {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	out := url.Values{}
	for _, k := range keys {
		out.Add(k, r.Values[k])
	}
	out.Set(KeySignature, r.Signature)
	out.Set(KeySubmittedAt, r.SubmittedAt.Format(time.RFC3339Nano))
	return out
}

// Notification is the reduced set of fields sent to the notification side-channel.
type Notification struct {
	ClientName string `json:"client_name"`
	PayerName  string `json:"payer_name"`
	PayerEmail string `json:"payer_email"`
	PayerPhone string `json:"payer_phone"`
}

// NotificationFor picks the notification fields from a record, using "N/A" for blanks.
func NotificationFor(r Record) Notification {
	pick := func(id string) string {
		if v := r.Values[id]; v != "" {
			return v
		}
		return "N/A"
	}
	return Notification{
		ClientName: pick(form.FieldPatientName),
		PayerName:  pick(form.FieldPaymentName),
		PayerEmail: pick(form.FieldPaymentEmail),
		PayerPhone: pick(form.FieldPaymentCell),
	}
}
