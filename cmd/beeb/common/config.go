package common

import (
    "os"
    "log"
    "time"
    "encoding/json"
    "path/filepath"
)

const CurrentVersion = 1

type ConfigData struct {
    Version int `json:"version,omitempty"`
    /* path to the os rom, loaded at 0xc000 */
    OSRom string `json:"os-rom,omitempty"`
    /* path to a language rom such as basic, loaded at 0x8000 */
    LanguageRom string `json:"language-rom,omitempty"`
    TimerMillis int `json:"timer-millis,omitempty"`
    VsyncMillis int `json:"vsync-millis,omitempty"`
}

func (data ConfigData) TimerPeriod() time.Duration {
    if data.TimerMillis <= 0 {
        return DefaultConfigData().TimerPeriod()
    }
    return time.Duration(data.TimerMillis) * time.Millisecond
}

func (data ConfigData) VsyncPeriod() time.Duration {
    if data.VsyncMillis <= 0 {
        return DefaultConfigData().VsyncPeriod()
    }
    return time.Duration(data.VsyncMillis) * time.Millisecond
}

/* make the directory where the config file lives, which is ~/.config/jon-beeb on linux */
func GetOrCreateConfigDir() (string, error) {
    configDir, err := os.UserConfigDir()
    if err != nil {
        return "", err
    }
    configPath := filepath.Join(configDir, "jon-beeb")
    err = os.MkdirAll(configPath, 0755)
    if err != nil {
        return "", err
    }

    return configPath, nil
}

func DefaultConfigData() ConfigData {
    return ConfigData{
        Version: CurrentVersion,
        TimerMillis: 10,
        VsyncMillis: 20,
    }
}

func LoadConfigData() (ConfigData, error) {
    configPath, err := GetOrCreateConfigDir()
    if err != nil {
        return DefaultConfigData(), err
    }

    file, err := os.Open(filepath.Join(configPath, "config.json"))
    if err != nil {
        return DefaultConfigData(), err
    }
    defer file.Close()

    var data ConfigData
    decoder := json.NewDecoder(file)
    err = decoder.Decode(&data)
    if err != nil {
        log.Printf("Could not load config data: %v", err)
        return DefaultConfigData(), err
    }

    /* an old layout is ignored rather than half understood */
    if data.Version != CurrentVersion {
        return DefaultConfigData(), nil
    }

    return data, nil
}

func SaveConfigData(data ConfigData) error {
    configPath, err := GetOrCreateConfigDir()
    if err != nil {
        return err
    }

    file, err := os.Create(filepath.Join(configPath, "config.json"))
    if err != nil {
        return err
    }
    defer file.Close()

    encoder := json.NewEncoder(file)
    encoder.SetIndent("", "  ")
    return encoder.Encode(data)
}
