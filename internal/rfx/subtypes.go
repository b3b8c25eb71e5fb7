package rfx

import "strings"

// subTypeNames maps protocol family to subtype labels indexed by subtype
// code. The tables cover the families this bridge receives by default;
// unknown combinations resolve to an empty label, which callers treat as
// "no label available" rather than an error.
var subTypeNames = map[string][]string{
	"lighting1": {"X10", "ARC", "ELRO", "WAVEMAN", "CHACON", "IMPULS", "RISING_SUN", "PHILIPS_SBC", "ENERGENIE_ENER010", "ENERGENIE_5_GANG", "COCO"},
	"lighting2": {"AC", "HOMEEASY_EU", "ANSLUT", "KAMBROOK"},
	"lighting3": {"KOPPLA"},
	"lighting4": {"PT2262"},
	"lighting5": {"LIGHTWAVERF", "EMW100", "BBSB", "MDREMOTE", "CONRAD", "LIVOLO", "TRC02"},
	"lighting6": {"BLYSS"},
	"chime1":    {"BYRON_SX", "BYRON_MP001", "SELECT_PLUS", "SELECT_PLUS3", "ENVIVO"},
	"security1": {"X10_DOOR", "X10_PIR", "X10_SECURITY", "KD101", "POWERCODE_DOOR", "POWERCODE_PIR", "CODE_SECURE", "POWERCODE_AUX", "MEIANTECH", "SA30"},

	"temperature1":         {"TEMP1", "TEMP2", "TEMP3", "TEMP4", "TEMP5", "TEMP6", "TEMP7", "TEMP8", "TEMP9", "TEMP10", "TEMP11"},
	"humidity1":            {"HUM1", "HUM2", "HUM3"},
	"temperaturehumidity1": {"TH1", "TH2", "TH3", "TH4", "TH5", "TH6", "TH7", "TH8", "TH9", "TH10", "TH11", "TH12", "TH13", "TH14"},
	"temphumbaro1":         {"THB1", "THB2"},
	"bbq1":                 {"BBQ1"},
	"uv1":                  {"UV1", "UV2", "UV3"},
	"weight1":              {"BWR101", "GR101"},
	"waterlevel":           {"TS_FT002"},
	"elec1":                {"CM113"},
	"elec23":               {"CM119_160", "CM180"},
	"rfxmeter":             {"RFXMETER"},
}

// SubTypeName resolves a numeric subtype to its label, or "" when unknown.
func SubTypeName(deviceType string, subtype int) string {
	names, ok := subTypeNames[strings.ToLower(deviceType)]
	if !ok || subtype < 0 || subtype >= len(names) {
		return ""
	}
	return names[subtype]
}

// KnownType reports whether a protocol family has a subtype table.
func KnownType(deviceType string) bool {
	_, ok := subTypeNames[strings.ToLower(deviceType)]
	return ok
}
