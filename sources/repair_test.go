package sources

import (
	"errors"
	"testing"
)

func TestCollapseNewlines(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{\"a\":\"x\ny\"}", `{"a":"x y"}`},
		{"{\"a\":\"x\r\ny\"}", `{"a":"x y"}`},
		{`{"a":"x"}`, `{"a":"x"}`},
	}
	for _, tt := range tests {
		if got := CollapseNewlines(tt.in); got != tt.want {
			t.Errorf("CollapseNewlines(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestQuoteUserPhoneKey(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"userlastname":"Doe", userPhone":"0600"}`, `{"userlastname":"Doe", "userPhone":"0600"}`},
		{`{"userlastname":"Doe",userPhone":"0600"}`, `{"userlastname":"Doe","userPhone":"0600"}`},
		{`{"userPhone":"0600"}`, `{"userPhone":"0600"}`},
		{`{"phone":"0600"}`, `{"phone":"0600"}`},
	}
	for _, tt := range tests {
		if got := QuoteUserPhoneKey(tt.in); got != tt.want {
			t.Errorf("QuoteUserPhoneKey(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestValueRegexpCachedPerKey(t *testing.T) {
	a := valueRegexp("logementName")
	if b := valueRegexp("logementName"); a != b {
		t.Errorf("same key should reuse the compiled pattern")
	}
	if c := valueRegexp("userPhone"); c == a {
		t.Errorf("different keys should not share a pattern")
	}
	if got := FirstNonEmptyValue(`{"userPhone":"","userPhone":"+33 6"}`, "userPhone"); got != "+33 6" {
		t.Errorf("userPhone: got %q, want %q", got, "+33 6")
	}
}

func TestFirstNonEmptyValue(t *testing.T) {
	tests := []struct {
		name, in, want string
	}{
		{"first non-empty, later empty", `{"logementName":"Villa Azur","x":1,"logementName":""}`, "Villa Azur"},
		{"first empty, later non-empty", `{"logementName":"","logementName" : "Villa Azur"}`, "Villa Azur"},
		{"all empty", `{"logementName":"","logementName":""}`, ""},
		{"absent", `{"other":"x"}`, ""},
		{"escaped quote", `{"logementName":"Le \"Mas\""}`, `Le "Mas"`},
	}
	for _, tt := range tests {
		if got := FirstNonEmptyValue(tt.in, "logementName"); got != tt.want {
			t.Errorf("%s: got %q; want %q", tt.name, got, tt.want)
		}
	}
}

func TestFixEmptyDataIA(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`{"piece":[],"dataia" : }`, `{"piece":[], "dataia" : {} }`},
		{`{"piece":[],"dataia":} `, `{"piece":[], "dataia" : {} }`},
		{`{"piece":[],"dataia":{}}`, `{"piece":[],"dataia":{}}`},
	}
	for _, tt := range tests {
		if got := FixEmptyDataIA(tt.in); got != tt.want {
			t.Errorf("FixEmptyDataIA(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestNormalizeURL(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"//cdn.bubble.io/f1.jpg", "https://cdn.bubble.io/f1.jpg"},
		{"  https://cdn.bubble.io/f1.jpg,  ", "https://cdn.bubble.io/f1.jpg"},
		{"//cdn.bubble.io/f1.jpg,,", "https://cdn.bubble.io/f1.jpg"},
		{"", ""},
		{"https://ok/x.png", "https://ok/x.png"},
	}
	for _, tt := range tests {
		if got := NormalizeURL(tt.in); got != tt.want {
			t.Errorf("NormalizeURL(%q) = %q; want %q", tt.in, got, tt.want)
		}
	}
}

func TestParseBundleRepairsEveryDefect(t *testing.T) {
	raw := "{\"rapportID\":\"r1\",\"logementName\":\"Villa Azur\",\"userfirstname\":\"Jean\", userPhone\":\"0600\"," +
		"\"rapportType\":\"Voyageur\",\"etaperesponse\":[{\"pieceid\":\"p1\",\"etapeid\":\"e1\",\"title\":\"Lit\nfait\"," +
		"\"checkphoto\":\"//cdn/x.jpg, \",\"referencephoto\":\"\",\"consigne\":\"\",\"isdone\":\"oui\"}]," +
		"\"photoPiececheckout\":[],\"exitQuestion\":[],\"logementName\":\"\",\"piece\":[],\"dataia\" : }\n"

	data, repairs, err := ParseBundle([]byte(raw))
	if err != nil {
		t.Fatalf("ParseBundle: %v", err)
	}
	if data.LogementName != "Villa Azur" {
		t.Errorf("LogementName: got %q, want %q", data.LogementName, "Villa Azur")
	}
	if data.UserPhone != "0600" {
		t.Errorf("UserPhone: got %q, want %q", data.UserPhone, "0600")
	}
	if got := data.EtapeResponse[0].CheckPhoto; got != "https://cdn/x.jpg" {
		t.Errorf("CheckPhoto: got %q", got)
	}
	if got := data.EtapeResponse[0].Title; got != "Lit fait" {
		t.Errorf("Title: got %q", got)
	}
	if len(repairs) != 4 {
		t.Errorf("repairs: got %v, want 4 entries", repairs)
	}
}

func TestParseBundleUnrepairable(t *testing.T) {
	_, _, err := ParseBundle([]byte(`{"rapportID": `))
	if !errors.Is(err, ErrBundleRepair) {
		t.Errorf("got %v, want ErrBundleRepair", err)
	}
}
