package model

import (
	"net/url"
	"strings"
)

// User — администратор каталога, восстановленный из claims сессионного токена.
// Не хранится — передаётся явно в операции сервисов и через контекст запроса.
type User struct {
	// ID — идентификатор пользователя
	ID string
	// UserName — логин
	UserName string
	// Name — отображаемое имя
	Name string
	// Position — должность
	Position string
	// Permissions — выданные разрешения (products-view, products-all, ...)
	Permissions []string
	// PermissionsData — пункты меню, доступные пользователю
	PermissionsData []MenuEntry
}

// MenuEntry — пункт меню администратора.
type MenuEntry struct {
	// Name — идентификатор пункта
	Name string `json:"name"`
	// URL — адрес перехода
	URL string `json:"url"`
	// Caption — подпись в меню
	Caption string `json:"caption"`
	// HasRedirectProtection — внешнему адресу нужен токен в query (?token=)
	HasRedirectProtection bool `json:"hasRedirectProtection"`
}

// Href возвращает адрес перехода. Для защищённых пунктов к URL
// добавляется параметр token, существующие параметры сохраняются.
func (m MenuEntry) Href(token string) string {
	if !m.HasRedirectProtection || token == "" {
		return m.URL
	}

	u, err := url.Parse(m.URL)
	if err != nil {
		sep := "?"
		if strings.Contains(m.URL, "?") {
			sep = "&"
		}
		return m.URL + sep + "token=" + url.QueryEscape(token)
	}

	q := u.Query()
	q.Set("token", token)
	u.RawQuery = q.Encode()
	return u.String()
}
