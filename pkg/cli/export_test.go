package cli

var SelectDemo = selectDemo
