package repositories

import "encoding/json"

func encodeRecord(rec record) ([]byte, error) {
	return json.Marshal(rec)
}

func decodeRecord(value []byte) (record, error) {
	var rec record
	err := json.Unmarshal(value, &rec)
	return rec, err
}
