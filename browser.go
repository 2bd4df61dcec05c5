package longpdf

import (
	"fmt"

	"github.com/go-rod/rod/lib/launcher"
)

// resolveBrowser downloads a compatible Chromium binary if one is not
// already cached and returns the path to the executable. The binary is
// stored in ~/.cache/rod/browser (Unix) or %APPDATA%\rod\browser (Windows).
func resolveBrowser() (string, error) {
	path, err := launcher.NewBrowser().Get()
	if err != nil {
		return "", fmt.Errorf("downloading browser: %w", err)
	}
	return path, nil
}

// browserPath returns the executable to launch, or "" to let the engine
// search the usual install locations.
func browserPath(cfg rendererConfig) (string, error) {
	if cfg.chromePath != "" || !cfg.autoDownload {
		return cfg.chromePath, nil
	}
	return resolveBrowser()
}

// openers maps each engine to its session constructor.
var openers = map[Engine]opener{
	EngineChromedp: openChromedp,
	EngineRod:      openRod,
}
