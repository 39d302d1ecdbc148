package flow

import (
	"testing"

	"github.com/credvita/loanassist/internal/models"
)

func TestClassifyFallback(t *testing.T) {
	cases := []struct {
		text  string
		field models.Field
		want  models.Classification
	}{
		{"50 lakhs", models.FieldPrincipal, models.ClassificationValue},
		{"5,00,000", models.FieldPrincipal, models.ClassificationValue},
		{"20 years", models.FieldTenure, models.ClassificationValue},
		{"8.5%", models.FieldROI, models.ClassificationValue},
		{"2 cr", models.FieldPrincipal, models.ClassificationValue},
		{"none", models.FieldExpense, models.ClassificationValue},
		{"what is the interest rate policy", models.FieldPrincipal, models.ClassificationOther},
		{"I am not sure yet", models.FieldTenure, models.ClassificationOther},
		{"none", models.FieldPrincipal, models.ClassificationOther},
	}
	for _, tc := range cases {
		if got := classifyFallback(tc.text, tc.field); got != tc.want {
			t.Errorf("classifyFallback(%q, %s) = %s, want %s", tc.text, tc.field, got, tc.want)
		}
	}
}

func TestIsQuestion(t *testing.T) {
	questions := []string{"what is FOIR?", "How does this work", "tell me about balance transfer"}
	for _, q := range questions {
		if !isQuestion(q) {
			t.Errorf("isQuestion(%q) = false, want true", q)
		}
	}
	statements := []string{"Ravi Kumar", "9876543210", "fresh loan"}
	for _, s := range statements {
		if isQuestion(s) {
			t.Errorf("isQuestion(%q) = true, want false", s)
		}
	}
}

func TestParseEmploymentType(t *testing.T) {
	cases := []struct {
		text string
		want models.EmploymentType
		ok   bool
	}{
		{"salaried", models.EmploymentSalaried, true},
		{"I am Salaried", models.EmploymentSalaried, true},
		{"self employed", models.EmploymentSelfEmployed, true},
		{"self-employed", models.EmploymentSelfEmployed, true},
		{"freelancer", "", false},
	}
	for _, tc := range cases {
		got, ok := parseEmploymentType(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseEmploymentType(%q) = (%q, %v), want (%q, %v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseLoanType(t *testing.T) {
	cases := []struct {
		text string
		want models.LoanType
		ok   bool
	}{
		{"fresh", models.LoanTypeFresh, true},
		{"a fresh loan please", models.LoanTypeFresh, true},
		{"balance transfer", models.LoanTypeBalanceTransfer, true},
		{"transfer", models.LoanTypeBalanceTransfer, true},
		{"top up", "", false},
	}
	for _, tc := range cases {
		got, ok := parseLoanType(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseLoanType(%q) = (%q, %v), want (%q, %v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestParseFullName(t *testing.T) {
	cases := []struct {
		text string
		want string
		ok   bool
	}{
		{"ravi kumar", "Ravi Kumar", true},
		{"  Asha   Verma ", "Asha Verma", true},
		{"Ravi", "", false},
		{"Ravi Kumar Sharma", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		got, ok := parseFullName(tc.text)
		if got != tc.want || ok != tc.ok {
			t.Errorf("parseFullName(%q) = (%q, %v), want (%q, %v)", tc.text, got, ok, tc.want, tc.ok)
		}
	}
}

func TestFieldValidators(t *testing.T) {
	if !validDOB("1996-05-10") || validDOB("10-05-1996") || validDOB("1996/05/10") {
		t.Error("validDOB accepts YYYY-MM-DD only")
	}
	if !validPinCode("400001") || validPinCode("4000") || validPinCode("40000a") {
		t.Error("validPinCode accepts exactly six digits")
	}
	if !validPhone("9876543210") || validPhone("98765") || validPhone("98765432101") {
		t.Error("validPhone accepts exactly ten digits")
	}
	if !validEmail("a.b@example.co.in") || validEmail("not-an-email") || validEmail("a@b") {
		t.Error("validEmail requires user@domain.tld")
	}
}
