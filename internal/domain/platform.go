package domain

// PlatformType は外部プラットフォームの種別を表す。
type PlatformType string

const (
	// PlatformTwitter はTwitter APIを表す。
	PlatformTwitter PlatformType = "twitter"
	// PlatformLinkedIn はLinkedIn APIを表す。
	PlatformLinkedIn PlatformType = "linkedin"
	// PlatformOpenAI はOpenAI APIを表す。
	PlatformOpenAI PlatformType = "openai"
	// PlatformFacebook はFacebook APIを表す。
	PlatformFacebook PlatformType = "facebook"
	// PlatformInstagram はInstagram APIを表す。
	PlatformInstagram PlatformType = "instagram"
)

// charLimits はプラットフォームごとの投稿文字数上限。
var charLimits = map[PlatformType]int{
	PlatformTwitter:   280,
	PlatformFacebook:  63206,
	PlatformInstagram: 2200,
	PlatformLinkedIn:  3000,
}

// IsValid はプラットフォーム種別が既知かどうかを返す。
func (p PlatformType) IsValid() bool {
	switch p {
	case PlatformTwitter, PlatformLinkedIn, PlatformOpenAI, PlatformFacebook, PlatformInstagram:
		return true
	}
	return false
}

// CharLimit はプラットフォームの投稿文字数上限を返す。
// 上限がないプラットフォームは0を返す。
func (p PlatformType) CharLimit() int {
	return charLimits[p]
}

// ValidateContent は投稿本文がプラットフォームの文字数上限内か検証する。
// 上限超過の場合はErrContentTooLongを返す。
func ValidateContent(content string, platform PlatformType) error {
	limit := platform.CharLimit()
	if limit > 0 && len([]rune(content)) > limit {
		return ErrContentTooLong
	}
	return nil
}
