// Package decoders registers the file decoders used by the ingestion
// pipeline. Import it for side effects:
//
//	import _ "github.com/criskgs/analiza-camion/internal/core/decoders"
package decoders

import "github.com/criskgs/analiza-camion/internal/core"

func init() {
	xlsx := core.DecoderFunc(DecodeXLSX)
	core.RegisterDecoder(".xlsx", xlsx)
	core.RegisterDecoder(".xlsm", xlsx)

	csv := core.DecoderFunc(DecodeCSV)
	core.RegisterDecoder(".csv", csv)
	core.RegisterDecoder(".tsv", csv)

	core.RegisterDecoder(".json", core.DecoderFunc(DecodeJSON))
	core.RegisterDecoder(".txt", core.DecoderFunc(DecodeText))
}
