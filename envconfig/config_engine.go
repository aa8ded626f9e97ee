// config_engine.go - Einstellungen der Tensor-Engine und des Graph-Baus
//
// Dieses Modul enthaelt:
// - Parallelitaets-Einstellungen
// - Seed fuer die Parameter-Initialisierung
package envconfig

// =============================================================================
// Parallelitaet
// =============================================================================

var (
	// NumThreads begrenzt die Goroutinen pro Tensor-Operation
	// Konfigurierbar via GANREC_NUM_THREADS
	// 0 = Anzahl der CPUs
	NumThreads = Uint("GANREC_NUM_THREADS", 0)
)

// =============================================================================
// Initialisierung
// =============================================================================

var (
	// Seed ist der Startwert fuer die Parameter-Initialisierung
	// Konfigurierbar via GANREC_SEED
	Seed = Uint64("GANREC_SEED", 0)

	// Deterministic erzwingt einen Thread pro Operation
	// Konfigurierbar via GANREC_DETERMINISTIC
	Deterministic = Bool("GANREC_DETERMINISTIC")
)
