// Package normalizer canonicalizes free-text categorical columns into the
// vocabulary the churn model was trained on.
package normalizer

import (
	"database/sql"

	"churn-rfm/pkg/models"
)

// OtherDevice is the catch-all for login devices outside the vocabulary.
const OtherDevice = "Other"

var (
	knownDevices = map[string]struct{}{"Mobile Phone": {}, "Computer": {}}
	deviceAlias  = map[string]string{
		"Phone":   "Mobile Phone",
		"Tablet":  "Mobile Phone",
		"Desktop": "Computer",
		"Laptop":  "Computer",
	}

	knownPaymentModes = map[string]struct{}{
		"Credit Card": {}, "Debit Card": {}, "E wallet": {}, "UPI": {}, "Cash on Delivery": {},
	}
	paymentAlias = map[string]string{
		"CC":  "Credit Card",
		"COD": "Cash on Delivery",
	}
)

// Device maps a login device onto {"Mobile Phone","Computer","Other"}.
// A missing value is not in the vocabulary either, so it becomes "Other".
func Device(v sql.NullString) sql.NullString {
	if !v.Valid {
		return models.Text(OtherDevice)
	}
	s := v.String
	if canon, ok := deviceAlias[s]; ok {
		s = canon
	}
	if _, ok := knownDevices[s]; !ok {
		s = OtherDevice
	}
	return models.Text(s)
}

// PaymentMode rewrites the known aliases. Unknown and missing values pass
// through unchanged; there is no catch-all bucket for payment modes.
func PaymentMode(v sql.NullString) sql.NullString {
	if !v.Valid {
		return v
	}
	if canon, ok := paymentAlias[v.String]; ok {
		return models.Text(canon)
	}
	return v
}

// KnownPaymentMode reports whether s is in the payment-mode vocabulary.
func KnownPaymentMode(s string) bool {
	_, ok := knownPaymentModes[s]
	return ok
}

// Result counts what Normalize did, per column.
type Result struct {
	Changed        map[string]int
	UnknownPayment int // present payment modes left outside the vocabulary
}

// Normalize rewrites PreferredLoginDevice and PreferredPaymentMode in place.
// Absent columns are skipped; all other columns are untouched.
func Normalize(t *models.Table) (Result, error) {
	res := Result{Changed: map[string]int{}}
	for _, step := range []struct {
		column string
		fn     func(sql.NullString) sql.NullString
	}{
		{models.ColPreferredLoginDevice, Device},
		{models.ColPreferredPaymentMode, PaymentMode},
	} {
		values, ok := t.Column(step.column)
		if !ok {
			continue
		}
		for i, v := range values {
			nv := step.fn(v)
			if nv != v {
				res.Changed[step.column]++
			}
			if step.column == models.ColPreferredPaymentMode && nv.Valid && !KnownPaymentMode(nv.String) {
				res.UnknownPayment++
			}
			values[i] = nv
		}
		if err := t.SetColumn(step.column, values); err != nil {
			return res, err
		}
	}
	return res, nil
}
