// compileinfoprint is imported for the side effect of printing the build
// information of the running binary to os.Stderr.
package compileinfoprint

import (
	"os"

	"github.com/carbocation/vocsensor/compileinfo"
)

func init() {
	compileinfo.Fprint(os.Stderr)
}
