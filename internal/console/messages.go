package console

import (
	"fmt"
	"strings"
)

// Msg identifies a user-facing message in the catalog
type Msg string

const (
	MsgBanner             Msg = "banner"
	MsgCheckingPython     Msg = "checking_python"
	MsgPythonFound        Msg = "python_found"
	MsgPythonMissing      Msg = "python_missing"
	MsgPythonInstallHint  Msg = "python_install_hint"
	MsgCreatingVenv       Msg = "creating_venv"
	MsgVenvCreated        Msg = "venv_created"
	MsgVenvFailed         Msg = "venv_failed"
	MsgVenvActivated      Msg = "venv_activated"
	MsgActivationFailed   Msg = "activation_failed"
	MsgCheckingToolkit    Msg = "checking_toolkit"
	MsgToolkitPresent     Msg = "toolkit_present"
	MsgInstallingToolkit  Msg = "installing_toolkit"
	MsgToolkitInstalled   Msg = "toolkit_installed"
	MsgToolkitFailed      Msg = "toolkit_failed"
	MsgInstallingManifest Msg = "installing_manifest"
	MsgStartingApp        Msg = "starting_app"
	MsgAppFailed          Msg = "app_failed"
	MsgFallbackHint       Msg = "fallback_hint"
	MsgPressEnter         Msg = "press_enter"
	MsgInterrupted        Msg = "interrupted"
)

// Catalog maps message ids to format strings for one language
type Catalog map[Msg]string

var catalogs = map[string]Catalog{
	"en": {
		MsgBanner:             "Starting the marking GUI application",
		MsgCheckingPython:     "Checking for Python...",
		MsgPythonFound:        "Python %s found: %s",
		MsgPythonMissing:      "Python %s or newer was not found on PATH",
		MsgPythonInstallHint:  "Install Python from https://www.python.org/downloads/ and tick \"Add Python to PATH\"",
		MsgCreatingVenv:       "Creating virtual environment in %s...",
		MsgVenvCreated:        "Virtual environment created",
		MsgVenvFailed:         "Failed to create the virtual environment",
		MsgVenvActivated:      "Virtual environment activated",
		MsgActivationFailed:   "Could not activate the virtual environment, using system Python",
		MsgCheckingToolkit:    "Checking %s...",
		MsgToolkitPresent:     "%s is installed",
		MsgInstallingToolkit:  "%s is not installed, installing...",
		MsgToolkitInstalled:   "%s installed successfully",
		MsgToolkitFailed:      "Failed to install %s",
		MsgInstallingManifest: "Installing dependencies from %s...",
		MsgStartingApp:        "Starting the GUI...",
		MsgAppFailed:          "The application exited with an error (code %d)",
		MsgFallbackHint:       "Try starting it manually:",
		MsgPressEnter:         "Press Enter to exit...",
		MsgInterrupted:        "Interrupted by user",
	},
	"ru": {
		MsgBanner:             "Запуск GUI приложения ЦРПТ Маркировка",
		MsgCheckingPython:     "Проверка Python...",
		MsgPythonFound:        "Python %s найден: %s",
		MsgPythonMissing:      "Python %s или выше не найден в PATH",
		MsgPythonInstallHint:  "Установите Python с https://www.python.org/downloads/ и отметьте \"Add Python to PATH\"",
		MsgCreatingVenv:       "Создание виртуального окружения в %s...",
		MsgVenvCreated:        "Виртуальное окружение создано",
		MsgVenvFailed:         "Ошибка создания виртуального окружения",
		MsgVenvActivated:      "Виртуальное окружение активировано",
		MsgActivationFailed:   "Не удалось активировать виртуальное окружение, используется системный Python",
		MsgCheckingToolkit:    "Проверка %s...",
		MsgToolkitPresent:     "%s установлен",
		MsgInstallingToolkit:  "%s не установлен, установка...",
		MsgToolkitInstalled:   "%s успешно установлен",
		MsgToolkitFailed:      "Ошибка установки %s",
		MsgInstallingManifest: "Установка зависимостей из %s...",
		MsgStartingApp:        "Запуск графического интерфейса...",
		MsgAppFailed:          "Приложение завершилось с ошибкой (код %d)",
		MsgFallbackHint:       "Попробуйте запустить вручную:",
		MsgPressEnter:         "Нажмите Enter для выхода...",
		MsgInterrupted:        "Выполнение прервано пользователем",
	},
}

// DefaultLang is used when an unknown language is requested
const DefaultLang = "en"

// Languages lists the available catalogs
func Languages() []string {
	return []string{"en", "ru"}
}

// CatalogFor returns the catalog for lang, falling back to DefaultLang
func CatalogFor(lang string) Catalog {
	if c, ok := catalogs[strings.ToLower(lang)]; ok {
		return c
	}
	return catalogs[DefaultLang]
}

// Format renders a message. Unknown ids render as the id itself.
func (c Catalog) Format(id Msg, args ...any) string {
	format, ok := c[id]
	if !ok {
		format, ok = catalogs[DefaultLang][id]
	}
	if !ok {
		return string(id)
	}
	if len(args) == 0 {
		return format
	}
	return fmt.Sprintf(format, args...)
}
