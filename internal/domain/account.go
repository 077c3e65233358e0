package domain

// Account — учётная запись, для которой работает отдельный worker.
//
// Account загружается из конфигурации один раз при старте и дальше
// не меняется. Name используется как ключ во всех per-account структурах
// (таблица статусов, restart policy, handles оркестратора).
type Account struct {
	// Name — логин; уникален среди аккаунтов.
	Name string `json:"name" yaml:"username"`

	// Password — пароль для входа в удалённый сервис.
	// Никогда не попадает в логи и ответы API.
	Password string `json:"-" yaml:"password"`

	// Enabled — начальное значение флага enabled в таблице статусов.
	Enabled bool `json:"enabled" yaml:"-"`
}

// ID возвращает ключ аккаунта.
func (a Account) ID() string {
	return a.Name
}

// String не раскрывает пароль при логировании через %v.
func (a Account) String() string {
	return a.Name
}
