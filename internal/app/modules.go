package app

import (
	"github.com/specialistvlad/flowgridgo/internal/registry"
	"github.com/specialistvlad/flowgridgo/modules/envprobe"
	"github.com/specialistvlad/flowgridgo/modules/exec"
	"github.com/specialistvlad/flowgridgo/modules/git"
	"github.com/specialistvlad/flowgridgo/modules/httpclient"
	"github.com/specialistvlad/flowgridgo/modules/listfiles"
	"github.com/specialistvlad/flowgridgo/modules/print"
	"github.com/specialistvlad/flowgridgo/modules/python"
)

// coreModules is the definitive list of all modules that are compiled into
// the flowgrid binary.
var coreModules = []registry.Module{
	&exec.Module{},
	&git.Module{},
	&python.Module{},
	&print.Module{},
	&envprobe.Module{},
	&listfiles.Module{},
	&httpclient.Module{},
}
