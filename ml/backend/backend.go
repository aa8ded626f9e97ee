// backend.go - Sammelpaket fuer Tensor-Engines
// Importiert alle konkreten Backends, damit ml.NewBackend sie findet.
package backend

import (
	_ "github.com/ganrec/ganrec/ml/backend/cpu"
)
