// Command tcphotos archives the photos posted to a Transparent Classroom
// child feed, embedding the caption, date, author and school location in
// each image.
package main

func main() {
	Execute()
}
