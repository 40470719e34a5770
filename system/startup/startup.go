package startup

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/dmaitland/alarm-controller/internal/config"
	"github.com/dmaitland/alarm-controller/internal/model"
)

// WriteStartupScript generates a boot script that puts every alarm pin in
// its idle state before the controller starts: sensor inputs with
// pull-down, indicator and buzzer outputs driven inactive.
func WriteStartupScript(cfg *config.Config, zones []model.Zone, buzzer model.GPIOPin) error {
	contents := bootScript(zones, buzzer)
	return os.WriteFile(cfg.BootScriptFilePath, []byte(contents), 0755)
}

func bootScript(zones []model.Zone, buzzer model.GPIOPin) string {
	var lines []string
	lines = append(lines, "#!/bin/bash", "", "# Alarm GPIO pin configuration at boot", "")

	input := func(label string, pin model.GPIOPin) {
		lines = append(lines, fmt.Sprintf("# %s", label))
		lines = append(lines, fmt.Sprintf("pinctrl set %d ip pd", pin.Number))
		lines = append(lines, "")
	}
	output := func(label string, pin model.GPIOPin) {
		drive := "dl"
		if !pin.ActiveHigh {
			drive = "dh"
		}
		lines = append(lines, fmt.Sprintf("# %s", label))
		lines = append(lines, fmt.Sprintf("pinctrl set %d op pn %s", pin.Number, drive))
		lines = append(lines, "")
	}

	for _, z := range zones {
		input(z.ID+".sensor", z.SensorPin)
		output(z.ID+".indicator", z.IndicatorPin)
	}
	output("buzzer", buzzer)

	return strings.Join(lines, "\n") + "\n"
}

func InstallStartupService(cfg *config.Config) error {
	unitContents := fmt.Sprintf(`[Unit]
Description=Configure alarm GPIO pins at boot
After=network.target

[Service]
Type=oneshot
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=%s
RemainAfterExit=true

[Install]
WantedBy=multi-user.target
`, cfg.BootScriptFilePath)

	return os.WriteFile(cfg.OSServicePath, []byte(unitContents), 0644)
}

func InstallControllerService(cfg *config.Config) error {
	gpioUnitName := filepath.Base(cfg.OSServicePath)

	unit := fmt.Sprintf(`[Unit]
Description=Alarm controller main service
After=%s
Requires=%s

[Service]
Type=simple
Environment=PATH=/usr/local/bin:/usr/bin:/bin
ExecStart=/usr/local/bin/alarm-controller -config-file /etc/alarm-controller/config.json
Restart=on-failure
RestartSec=5s

[Install]
WantedBy=multi-user.target
`, gpioUnitName, gpioUnitName)

	return os.WriteFile(cfg.MainServicePath, []byte(unit), 0644)
}

func RunStartupScript(cfg *config.Config) error {
	cmd := exec.Command("/bin/bash", cfg.BootScriptFilePath)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}
