// Package i18n holds the user-facing messages in Arabic and English.
package i18n

import (
	"golang.org/x/text/language"
)

var (
	Arabic  = language.Arabic
	English = language.English
)

var matcher = language.NewMatcher([]language.Tag{Arabic, English})

var catalog = map[language.Tag]map[string]string{
	Arabic: {
		"invalid_amount":         "المبلغ يجب أن يكون رقماً موجباً",
		"invalid_payment_method": "طريقة الدفع غير صالحة",
		"invalid_type":           "نوع التبرع غير صالح",
		"missing_field":          "حقل مطلوب مفقود",
		"invalid_decision":       "قرار المراجعة غير صالح",
		"invalid_mobile":         "رقم الجوال غير صالح",
		"invalid_email":          "البريد الإلكتروني غير صالح",
		"weak_password":          "كلمة المرور قصيرة جداً",
		"invalid_role":           "الدور غير صالح",
		"invalid_id":             "المعرف غير صالح",
		"invalid_date":           "التاريخ غير صالح",
		"invalid_outcome":        "نتيجة الدفع غير صالحة",
		"mobile_taken":           "رقم الجوال مسجل مسبقاً",
		"invalid_body":           "الطلب غير صالح",
		"file_too_large":         "حجم الملف يتجاوز 5 ميغابايت",
		"file_type":              "صيغة الملف غير مسموحة. المسموح JPG وPNG وPDF",
		"unauthorized":           "يجب تسجيل الدخول",
		"forbidden":              "ليست لديك صلاحية لهذا الإجراء",
		"invalid_credentials":    "رقم الجوال أو كلمة المرور غير صحيحة",
		"not_found":              "العنصر غير موجود",
		"already_processed":      "تمت معالجة هذا الطلب مسبقاً",
		"internal":               "حدث خطأ غير متوقع",
		"receipt_subject":        "إيصال تبرعك",
		"receipt_greeting":       "شكراً لتبرعك",
	},
	English: {
		"invalid_amount":         "Amount must be a positive number",
		"invalid_payment_method": "Invalid payment method",
		"invalid_type":           "Invalid donation type",
		"missing_field":          "A required field is missing",
		"invalid_decision":       "Invalid review decision",
		"invalid_mobile":         "Invalid mobile number",
		"invalid_email":          "Invalid email address",
		"weak_password":          "Password is too short",
		"invalid_role":           "Invalid role",
		"invalid_id":             "Invalid identifier",
		"invalid_date":           "Invalid date",
		"invalid_outcome":        "Invalid payment outcome",
		"mobile_taken":           "Mobile number already registered",
		"invalid_body":           "Invalid request body",
		"file_too_large":         "File exceeds the 5MB limit",
		"file_type":              "File type not allowed. Use JPG, PNG or PDF",
		"unauthorized":           "Login required",
		"forbidden":              "You are not allowed to do this",
		"invalid_credentials":    "Invalid mobile or password",
		"not_found":              "Not found",
		"already_processed":      "This request was already processed",
		"internal":               "Something went wrong",
		"receipt_subject":        "Your donation receipt",
		"receipt_greeting":       "Thank you for your donation",
	},
}

// Match picks Arabic or English from an Accept-Language header. Arabic is
// the default.
func Match(acceptLanguage string) language.Tag {
	if acceptLanguage == "" {
		return Arabic
	}
	_, index := language.MatchStrings(matcher, acceptLanguage)
	if index == 1 {
		return English
	}
	return Arabic
}

// Message returns the text for code, falling back to Arabic and then the
// code itself.
func Message(tag language.Tag, code string) string {
	if msg, ok := catalog[tag][code]; ok {
		return msg
	}
	if msg, ok := catalog[Arabic][code]; ok {
		return msg
	}
	return code
}
