package executor

import (
	"strconv"

	"github.com/minio/highwayhash"
	"github.com/viant/lintexec/language"
	"github.com/viant/lintexec/model"
)

// programSeed must stay 32 bytes long
var programSeed = []byte("lintexec/detection-program/cache")

// programKey identifies a compiled detection program in the program cache
func programKey(lang language.Language, state model.SourceCodeState, code string) string {
	sum := highwayhash.Sum64([]byte(code), programSeed)
	return string(lang) + "/" + string(state) + "/" + strconv.FormatUint(sum, 16)
}
