package cinetl

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Truncation limits for free-text columns.
const (
	ReviewLimit       = 200
	StagedReviewLimit = 1000
	DescriptionLimit  = 50
	RoleNameLimit     = 50
	UsernameLimit     = 50
	EmailLimit        = 100
)

// DefaultRoleName is used for cast credits that carry no role text at all.
const DefaultRoleName = "角色"

// UnknownPosition names crew positions with neither role nor department.
const UnknownPosition = "Unknown"

// NormalizeName trims whitespace and the stray quotes the crawler sometimes
// leaves around names.
func NormalizeName(s string) string {
	return strings.Trim(strings.TrimSpace(s), " \"\u3000“”")
}

// CollapseSpace replaces every run of whitespace (including newlines) with a
// single space and trims the ends.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Truncate cuts s to at most n characters. n <= 0 leaves s alone.
func Truncate(s string, n int) string {
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	i := 0
	for pos := range s {
		if i == n {
			return s[:pos]
		}
		i++
	}
	return s
}

// FlattenText makes free text safe for a single CSV line: newlines become
// spaces, whitespace runs collapse, and the result is cut to limit
// characters.
func FlattenText(s string, limit int) string {
	return Truncate(CollapseSpace(s), limit)
}

var roleParenRE = regexp.MustCompile(`[（(](.*?)[)）]`)

// ExtractRoleName pulls the character name out of a cast role string such as
// "配音 Voice (配 碇真嗣)" or "演员 Actor (饰 Walter White)". Strings without
// a recognisable character fall back to the raw text.
func ExtractRoleName(role string) string {
	role = strings.TrimSpace(role)
	if role == "" {
		return DefaultRoleName
	}
	if m := roleParenRE.FindStringSubmatch(role); m != nil {
		inner := strings.TrimSpace(m[1])
		for _, prefix := range []string{"配 ", "饰 "} {
			if strings.HasPrefix(inner, prefix) {
				inner = strings.TrimSpace(inner[len(prefix):])
				break
			}
		}
		if inner != "" {
			return CollapseSpace(Truncate(inner, RoleNameLimit))
		}
	}
	if idx := strings.Index(role, "饰"); idx >= 0 {
		candidate := strings.Trim(role[idx+len("饰"):], " ：:，,")
		if candidate != "" {
			return CollapseSpace(Truncate(candidate, RoleNameLimit))
		}
	}
	return CollapseSpace(Truncate(role, RoleNameLimit))
}

// PositionName is the Position dictionary entry for a crew credit.
func PositionName(role, department string) string {
	return FirstNonEmpty(CollapseSpace(role), CollapseSpace(department), UnknownPosition)
}

var (
	placeSeparators = strings.NewReplacer("，", ",", "、", ",", "／", ",", "/", ",", "|", ",", "·", ",")
	hanDotRE        = regexp.MustCompile(`([\x{4e00}-\x{9fff}])[\s\x{3000}]*[.。][\s\x{3000}]*([\x{4e00}-\x{9fff}])`)
)

// BirthRegion extracts the leading country or region from a free-text
// birth place: "美国,新泽西州,纽瓦克" and "英国.苏塞克斯 郡沃辛" both give their
// first segment. Places written without any separator are returned whole.
func BirthRegion(place string) string {
	s := placeSeparators.Replace(strings.TrimSpace(place))
	// Matches cannot overlap, so "甲.乙.丙" needs a second pass.
	for {
		next := hanDotRE.ReplaceAllString(s, "$1,$2")
		if next == s {
			break
		}
		s = next
	}
	parts := strings.FieldsFunc(s, func(r rune) bool {
		return r == ',' || unicode.IsSpace(r)
	})
	if len(parts) == 0 {
		return ""
	}
	return parts[0]
}

// Normalised award types.
const (
	AwardTypePerson = "person"
	AwardTypeMovie  = "movie"
)

// NormalizeAwardType maps the award type text onto "person" or "movie".
// Unrecognised types are passed through lower-cased so that the dictionary
// and the records that reference it still agree.
func NormalizeAwardType(raw string) string {
	s := strings.ToLower(NormalizeName(raw))
	switch {
	case s == "":
		return ""
	case containsAny(s, "person", "个人", "演员", "导演", "编剧"):
		return AwardTypePerson
	case containsAny(s, "movie", "影片", "电影"):
		return AwardTypeMovie
	}
	return s
}

func containsAny(s string, subs ...string) bool {
	for _, sub := range subs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}

// PrincipalOrder is the highest billing order still counted as principal.
const PrincipalOrder = 3

// IsPrincipal reports whether a billing order marks a principal credit.
func IsPrincipal(order OptInt) bool {
	return order.Valid && order.V > 0 && order.V <= PrincipalOrder
}

// UserHash anonymises a raw username the same way the review crawler does:
// the first 16 hex characters of its SHA-256.
func UserHash(username string) string {
	username = strings.TrimSpace(username)
	if username == "" {
		return ""
	}
	sum := sha256.Sum256([]byte(username))
	return hex.EncodeToString(sum[:])[:16]
}

// PlaceholderEmail is the synthetic address stored for a crawled user.
func PlaceholderEmail(hash string) string {
	return Truncate(hash+"@douban.example", EmailLimit)
}

// BoolString renders b the way the bulk loader expects booleans.
func BoolString(b bool) string {
	if b {
		return "TRUE"
	}
	return "FALSE"
}
