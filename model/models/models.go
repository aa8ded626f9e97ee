// Package models registriert alle Architekturen beim Import.
package models

import (
	_ "github.com/ganrec/ganrec/model/models/diffusion"
	_ "github.com/ganrec/ganrec/model/models/discriminator"
	_ "github.com/ganrec/ganrec/model/models/fno"
	_ "github.com/ganrec/ganrec/model/models/generator"
)
