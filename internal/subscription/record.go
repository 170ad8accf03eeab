package subscription

import "encoding/json"

func encodeRecord(r Record) string {
	b, err := json.Marshal(r)
	if err != nil {
		// Record is a plain struct of scalars; marshal cannot fail.
		return "{}"
	}
	return string(b)
}

func decodeRecord(raw string) (Record, error) {
	var r Record
	if err := json.Unmarshal([]byte(raw), &r); err != nil {
		return Record{}, err
	}
	if r.NotifyHour < 0 || r.NotifyHour > 23 {
		r.NotifyHour = DefaultNotifyHour
	}
	if r.DisplayDays < 1 {
		r.DisplayDays = DefaultDisplayDays
	}
	return r, nil
}
