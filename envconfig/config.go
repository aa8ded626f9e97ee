// config.go - Haupt-Konfigurationsfunktionen fuer ganrec
//
// Dieses Modul enthaelt:
// - LogLevel: Gibt Log-Level zurueck (GANREC_DEBUG)
// - Backend: Gibt den Namen der Tensor-Engine zurueck (GANREC_BACKEND)
// - Var: Liest eine Environment-Variable
//
// Weitere Konfigurationen sind ausgelagert:
// - config_engine.go: Parallelitaet und Seeds
// - config_utils.go: Utility-Funktionen und AsMap/Values
package envconfig

import (
	"log/slog"
	"os"
	"strconv"
	"strings"
)

// LogLevel gibt das Log-Level zurueck
// Konfigurierbar via GANREC_DEBUG
// Werte: 0/false = INFO (Default), 1/true = DEBUG, 2 = TRACE
func LogLevel() slog.Level {
	level := slog.LevelInfo
	if s := Var("GANREC_DEBUG"); s != "" {
		if b, _ := strconv.ParseBool(s); b {
			level = slog.LevelDebug
		} else if i, _ := strconv.ParseInt(s, 10, 64); i != 0 {
			level = slog.Level(i * -4)
		}
	}

	return level
}

// Backend gibt den Namen der Tensor-Engine zurueck
// Konfigurierbar via GANREC_BACKEND
// Default: cpu
func Backend() string {
	if s := String("GANREC_BACKEND")(); s != "" {
		return strings.ToLower(s)
	}
	return "cpu"
}

// Var gibt eine Environment-Variable zurueck
// Entfernt fuehrende/trailing Quotes und Leerzeichen
func Var(key string) string {
	return strings.Trim(strings.TrimSpace(os.Getenv(key)), "\"'")
}
