package fakeapi

import (
	"net/http"

	"github.com/utafrali/ApartmentAdmin/pkg/middleware"
)

// Supported response languages. The first is the default.
var languages = []string{"en", "ar"}

const (
	msgLoggedIn        = "logged_in"
	msgBadCredentials  = "bad_credentials"
	msgOTPSent         = "otp_sent"
	msgOTPInvalid      = "otp_invalid"
	msgOTPVerified     = "otp_verified"
	msgOTPRequired     = "otp_required"
	msgPasswordReset   = "password_reset"
	msgPhoneUnknown    = "phone_unknown"
	msgPhoneTaken      = "phone_taken"
	msgProfileUpdated  = "profile_updated"
	msgUserCreated     = "user_created"
	msgUserUpdated     = "user_updated"
	msgUserDeleted     = "user_deleted"
	msgNotificationsRd = "notifications_read"
	msgNewUser         = "new_user"
)

var catalog = map[string]map[string]string{
	"en": {
		msgLoggedIn:        "Logged in successfully",
		msgBadCredentials:  "The provided credentials are incorrect.",
		msgOTPSent:         "OTP has been sent to your phone",
		msgOTPInvalid:      "The OTP code is invalid.",
		msgOTPVerified:     "OTP verified",
		msgOTPRequired:     "Verify the OTP code first.",
		msgPasswordReset:   "Your password has been reset.",
		msgPhoneUnknown:    "No account is registered with this phone number.",
		msgPhoneTaken:      "The phone has already been taken.",
		msgProfileUpdated:  "Profile updated successfully",
		msgUserCreated:     "User created successfully",
		msgUserUpdated:     "User updated successfully",
		msgUserDeleted:     "User deleted successfully",
		msgNotificationsRd: "All notifications marked as read",
		msgNewUser:         "New user registered",
	},
	"ar": {
		msgLoggedIn:        "تم تسجيل الدخول بنجاح",
		msgBadCredentials:  "بيانات الدخول غير صحيحة.",
		msgOTPSent:         "تم إرسال رمز التحقق إلى هاتفك",
		msgOTPInvalid:      "رمز التحقق غير صالح.",
		msgOTPVerified:     "تم التحقق من الرمز",
		msgOTPRequired:     "يرجى التحقق من الرمز أولاً.",
		msgPasswordReset:   "تمت إعادة تعيين كلمة المرور.",
		msgPhoneUnknown:    "لا يوجد حساب مسجل بهذا الرقم.",
		msgPhoneTaken:      "رقم الهاتف مستخدم بالفعل.",
		msgProfileUpdated:  "تم تحديث الملف الشخصي بنجاح",
		msgUserCreated:     "تم إنشاء المستخدم بنجاح",
		msgUserUpdated:     "تم تحديث المستخدم بنجاح",
		msgUserDeleted:     "تم حذف المستخدم بنجاح",
		msgNotificationsRd: "تم تعليم جميع الإشعارات كمقروءة",
		msgNewUser:         "تم تسجيل مستخدم جديد",
	},
}

// message returns the text for key in the request's negotiated language.
func message(r *http.Request, key string) string {
	if m, ok := catalog[middleware.LocaleFromContext(r.Context())]; ok {
		if text, ok := m[key]; ok {
			return text
		}
	}
	return catalog[languages[0]][key]
}
