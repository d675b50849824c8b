package types

// Language represents a supported UI language.
type Language string

const (
	LanguageTamil   Language = "ta"
	LanguageEnglish Language = "en"
)

// IsValid reports whether the language is one of the supported values.
func (l Language) IsValid() bool {
	return l == LanguageTamil || l == LanguageEnglish
}

// Translation holds the Tamil and English renderings of a user-visible string.
// The language set is closed, so this is a fixed-arity struct rather than a map.
type Translation struct {
	Ta string `json:"ta,omitempty"`
	En string `json:"en,omitempty"`
}

// Get returns the rendering for the requested language, falling back to
// English when the Tamil text is missing.
func (t Translation) Get(lang Language) string {
	if lang == LanguageTamil && t.Ta != "" {
		return t.Ta
	}
	return t.En
}

// IsZero reports whether no rendering is present at all.
func (t Translation) IsZero() bool {
	return t.Ta == "" && t.En == ""
}

// Messages used across services. Kept in one place so handlers and the
// realtime coordinator emit identical wording.
var (
	MsgOTPSent = Translation{
		Ta: "OTP அனுப்பப்பட்டது",
		En: "OTP sent successfully",
	}
	MsgInvalidOTP = Translation{
		Ta: "தவறான OTP",
		En: "Invalid OTP",
	}
	MsgNameRequired = Translation{
		Ta: "பெயர் தேவை",
		En: "Name is required for new users",
	}
	MsgLoginSuccess = Translation{
		Ta: "வெற்றிகரமாக உள்நுழைந்தீர்கள்",
		En: "Login successful",
	}
	MsgSOSTriggered = Translation{
		Ta: "SOS சிக்னல் அனுப்பப்பட்டது. அவசர சேவைகள் அறிவிக்கப்பட்டன.",
		En: "SOS signal sent. Emergency services have been notified.",
	}
	MsgSOSAcknowledged = Translation{
		Ta: "SOS சிக்னல் பெறப்பட்டது. அவசர சேவைகள் அறிவிக்கப்படுகின்றன...",
		En: "SOS signal received. Notifying emergency services...",
	}
	MsgServicesNotified = Translation{
		Ta: "அவசர சேவைகள் அறிவிக்கப்பட்டன",
		En: "Emergency services have been notified",
	}
	MsgHospitalsNotified = Translation{
		Ta: "அருகிலுள்ள மருத்துவமனைகளுக்கு அறிவிப்பு அனுப்பப்பட்டது",
		En: "Nearby hospitals have been notified",
	}
	MsgServiceUnavailable = Translation{
		Ta: "சேவை தற்காலிகமாக கிடைக்கவில்லை. பின்னர் முயற்சிக்கவும்.",
		En: "Service temporarily unavailable. Please try again later.",
	}
	MsgHealthFallback = Translation{
		Ta: "மன்னிக்கவும், இப்போது பதிலளிக்க முடியவில்லை. அறிகுறிகள் தொடர்ந்தால் அருகிலுள்ள மருத்துவரை அணுகவும். அவசரநிலையில் 108 ஐ அழைக்கவும்.",
		En: "Sorry, we cannot respond right now. If symptoms persist, please visit a nearby doctor. In an emergency, call 108.",
	}
)
