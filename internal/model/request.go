package model

import "encoding/json"

// CountyDataRequest is the body of POST /county_data.
type CountyDataRequest struct {
	Zip         string
	MeasureName string
	Coffee      string
}

// ParseCountyDataRequest decodes body as a JSON object. A body that is not a
// JSON object yields an empty request, and fields that are not JSON strings
// are treated as absent.
func ParseCountyDataRequest(body []byte) CountyDataRequest {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return CountyDataRequest{}
	}
	return CountyDataRequest{
		Zip:         stringField(raw, "zip"),
		MeasureName: stringField(raw, "measure_name"),
		Coffee:      stringField(raw, "coffee"),
	}
}

func stringField(raw map[string]json.RawMessage, key string) string {
	v, ok := raw[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(v, &s); err != nil {
		return ""
	}
	return s
}
