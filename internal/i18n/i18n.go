package i18n

import (
	"fmt"
	"strings"

	"github.com/gin-gonic/gin"
)

const (
	// DefaultLocale 默认语言
	DefaultLocale = "en"

	localeQueryKey  = "lang"
	localeHeaderKey = "Accept-Language"
)

var supportedLocales = map[string]bool{
	"en": true,
	"ar": true,
}

// ResolveLocale 从请求中解析语言（?lang= 优先，其次 Accept-Language）
func ResolveLocale(c *gin.Context) string {
	if c == nil {
		return DefaultLocale
	}
	if lang := normalizeLocale(c.Query(localeQueryKey)); lang != "" {
		return lang
	}
	header := c.GetHeader(localeHeaderKey)
	for _, part := range strings.Split(header, ",") {
		tag := part
		if idx := strings.Index(tag, ";"); idx >= 0 {
			tag = tag[:idx]
		}
		if lang := normalizeLocale(tag); lang != "" {
			return lang
		}
	}
	return DefaultLocale
}

func normalizeLocale(raw string) string {
	tag := strings.ToLower(strings.TrimSpace(raw))
	if tag == "" {
		return ""
	}
	if idx := strings.Index(tag, "-"); idx > 0 {
		tag = tag[:idx]
	}
	if supportedLocales[tag] {
		return tag
	}
	return ""
}

// T 按语言和 key 返回文案；缺失时回退英文，再回退 key 本身
func T(locale, key string) string {
	locale = strings.ToLower(strings.TrimSpace(locale))
	if catalog, ok := messages[locale]; ok {
		if msg, ok := catalog[key]; ok {
			return msg
		}
	}
	if msg, ok := messages[DefaultLocale][key]; ok {
		return msg
	}
	return key
}

// TF 返回带参数的文案（文案模板为 fmt 格式）
func TF(locale, key string, args ...interface{}) string {
	template := T(locale, key)
	if len(args) == 0 {
		return template
	}
	return fmt.Sprintf(template, args...)
}
