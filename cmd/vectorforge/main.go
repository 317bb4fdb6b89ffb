// Package main は vectorforge コマンドのエントリーポイントです。
package main

import (
	"fmt"
	"os"
)

func usage() {
	fmt.Fprintln(os.Stderr, `vectorforge - 変換バックエンドのジョブクライアント

Usage:
  vectorforge convert <file> [-quality q] [-width px] [-dpi n] [-fill #hex] [-out dir] [-no-download]
  vectorforge serve [port]
  vectorforge help`)
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "convert":
		os.Exit(runConvert(os.Args[2:]))
	case "serve":
		os.Exit(runServe(os.Args[2:]))
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "unknown command: %s\n\n", os.Args[1])
		usage()
		os.Exit(1)
	}
}
