// upwood 合约交易客户端命令行
package main

func main() {
	Execute()
}
