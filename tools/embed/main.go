// The embed tool embeds data files as string constants into a Go package.
// It scans the current directory for files with the given type suffix and
// writes them into generated_embedded_{type}.go, one constant per file.
package main

import (
	"flag"
	"io"
	"os"
	"strings"
)

var fileType = flag.String("type", "json", "the type of files")
var packageName = flag.String("package", "main", "the package of the generated file")

func main() {
	flag.Parse()
	suffix := "." + *fileType
	goSuffix := strings.ToUpper(*fileType)
	fs, _ := os.ReadDir(".")
	out, err := os.Create("generated_embedded_" + *fileType + ".go")
	if err != nil {
		panic(err)
	}
	out.Write([]byte("package " + *packageName + " \n"))
	out.Write([]byte("\nconst (\n"))
	var dataFiles []string
	for _, f := range fs {
		if strings.HasSuffix(f.Name(), suffix) {
			dataFiles = append(dataFiles, f.Name())
		}
	}

	for _, name := range dataFiles {
		f, err := os.Open(name)
		if err != nil {
			panic(err)
		}
		out.Write([]byte(strings.TrimSuffix(f.Name(), suffix) + goSuffix + " = `"))
		io.Copy(out, f)
		out.Write([]byte("`\n"))
		f.Close()
	}
	out.Write([]byte(")\n"))
}
