package main

import "github.com/loadinglucian/deployer-php-sub001/cmd"

func main() {
	cmd.Execute()
}
