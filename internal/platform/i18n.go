package platform

import (
	"strings"
)

// Text 双语文本模板，变量写作 {name}
type Text struct {
	FR string
	EN string
}

// Localizer 按配置语言渲染文本
type Localizer struct {
	lang string
}

// NewLocalizer 创建本地化器，未知语言回退为法语
func NewLocalizer(lang string) Localizer {
	lang = strings.ToLower(strings.TrimSpace(lang))
	if lang != "en" {
		lang = "fr"
	}
	return Localizer{lang: lang}
}

// Lang 当前语言
func (l Localizer) Lang() string {
	return l.lang
}

// Format 渲染模板
func (l Localizer) Format(t Text, vars map[string]string) string {
	template := t.FR
	if l.lang == "en" && t.EN != "" {
		template = t.EN
	}
	if len(vars) == 0 {
		return template
	}

	pairs := make([]string, 0, len(vars)*2)
	for k, v := range vars {
		pairs = append(pairs, "{"+k+"}", v)
	}
	return strings.NewReplacer(pairs...).Replace(template)
}
