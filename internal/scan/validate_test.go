package scan

import (
	"testing"

	"github.com/mrsinham/retinascan/internal/model"
)

func validVitals() model.PatientVitals {
	return model.PatientVitals{
		Name:   "Jane Doe",
		Age:    54,
		Gender: model.GenderFemale,
		Phone:  "0123456789",
	}
}

func TestValidate_AllValid(t *testing.T) {
	fe := Validate(validVitals(), true)
	if !fe.Valid() {
		t.Errorf("expected no errors, got %v", fe)
	}
}

func TestValidate_EachRuleIndependent(t *testing.T) {
	cases := []struct {
		name      string
		mutate    func(*model.PatientVitals)
		hasImage  bool
		wantField string
		wantMsg   string
	}{
		{"empty name", func(v *model.PatientVitals) { v.Name = "" }, true, FieldName, MsgNameRequired},
		{"zero age", func(v *model.PatientVitals) { v.Age = 0 }, true, FieldAge, MsgAgePositive},
		{"negative age", func(v *model.PatientVitals) { v.Age = -3 }, true, FieldAge, MsgAgePositive},
		{"short phone", func(v *model.PatientVitals) { v.Phone = "12345" }, true, FieldPhone, MsgPhoneDigits},
		{"long phone", func(v *model.PatientVitals) { v.Phone = "01234567890" }, true, FieldPhone, MsgPhoneDigits},
		{"alpha phone", func(v *model.PatientVitals) { v.Phone = "01234abcde" }, true, FieldPhone, MsgPhoneDigits},
		{"no image", func(v *model.PatientVitals) {}, false, FieldImage, MsgImageRequired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			v := validVitals()
			tc.mutate(&v)
			fe := Validate(v, tc.hasImage)
			if len(fe) != 1 {
				t.Fatalf("expected exactly 1 error, got %v", fe)
			}
			if fe[tc.wantField] != tc.wantMsg {
				t.Errorf("error for %s = %q, want %q", tc.wantField, fe[tc.wantField], tc.wantMsg)
			}
		})
	}
}

func TestValidate_MultipleViolationsReportedTogether(t *testing.T) {
	v := validVitals()
	v.Name = ""
	v.Phone = "jane"
	fe := Validate(v, true)

	if len(fe) != 2 {
		t.Fatalf("expected 2 errors, got %v", fe)
	}
	if fe[FieldName] != MsgNameRequired {
		t.Errorf("missing name error: %v", fe)
	}
	if fe[FieldPhone] != MsgPhoneDigits {
		t.Errorf("missing phone error: %v", fe)
	}
}

func TestFieldErrors_ClearRemovesOnlyOneField(t *testing.T) {
	v := validVitals()
	v.Name = ""
	v.Age = 0
	fe := Validate(v, true)

	fe.Clear(FieldName)
	if _, ok := fe[FieldName]; ok {
		t.Error("name error should be cleared")
	}
	if fe[FieldAge] != MsgAgePositive {
		t.Error("age error must survive clearing the name field")
	}
}
